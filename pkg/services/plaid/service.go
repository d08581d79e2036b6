// Package plaid wraps Plaid's tool gateway as synchronous tools. The
// gateway takes every call at one endpoint as {"tool", "arguments"} and the
// handlers here reshape its responses: account summaries, transaction
// category/merchant analysis, balance health, and identity listings.
package plaid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/remote"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

const maxTransactionCount = 500

type Service struct {
	client *remote.Client
	logger *slog.Logger
}

func New(cfg config.PlaidConfig) (*Service, error) {
	client, err := remote.New(remote.Config{
		BaseURL:   cfg.BaseURL,
		AuthValue: credential(cfg.ClientID, cfg.Secret),
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		client: client,
		logger: log.WithComponent("plaid"),
	}, nil
}

// credential builds the gateway's bearer token: base64 of client_id:secret.
func credential(clientID, secret string) string {
	if clientID == "" && secret == "" {
		return ""
	}
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+secret))
}

func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&listAccountsTool{service: s},
		&listTransactionsTool{service: s},
		&accountBalancesTool{service: s},
		&accountIdentityTool{service: s},
		&analyzeSpendingTool{service: s},
	}
}

// call posts one tool invocation to the gateway endpoint and decodes the
// response into out.
func (s *Service) call(ctx context.Context, toolName string, args map[string]interface{}, out interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "",
		Method:   "POST",
		Body: map[string]interface{}{
			"tool":      toolName,
			"arguments": args,
		},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.RemoteError{Message: fmt.Sprintf("malformed %s response: %v", toolName, err)}
	}
	return nil
}

type wireBalances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	Limit           *float64 `json:"limit"`
	ISOCurrencyCode string   `json:"iso_currency_code"`
	UnofficialCode  *string  `json:"unofficial_currency_code"`
}

type wireAccount struct {
	AccountID          string       `json:"account_id"`
	Name               string       `json:"name"`
	OfficialName       *string      `json:"official_name"`
	Type               string       `json:"type"`
	Subtype            string       `json:"subtype"`
	InstitutionName    string       `json:"institution_name"`
	Mask               *string      `json:"mask"`
	Balances           wireBalances `json:"balances"`
	VerificationStatus *string      `json:"verification_status"`
}

type wireTransaction struct {
	TransactionID string   `json:"transaction_id"`
	AccountID     string   `json:"account_id"`
	Amount        float64  `json:"amount"`
	Date          string   `json:"date"`
	Name          string   `json:"name"`
	MerchantName  *string  `json:"merchant_name"`
	Category      []string `json:"category"`
	Pending       bool     `json:"pending"`
}

func (s *Service) listAccounts(ctx context.Context) (map[string]interface{}, error) {
	var resp struct {
		Accounts []wireAccount `json:"accounts"`
	}
	if err := s.call(ctx, "get_accounts", nil, &resp); err != nil {
		return nil, err
	}

	byType := map[string]int{}
	bySubtype := map[string]int{}
	institutions := map[string]bool{}

	accounts := make([]map[string]interface{}, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accountType := a.Type
		if accountType == "" {
			accountType = "unknown"
		}
		subtype := a.Subtype
		if subtype == "" {
			subtype = "unknown"
		}
		institution := a.InstitutionName
		if institution == "" {
			institution = "Unknown"
		}

		byType[accountType]++
		bySubtype[subtype]++
		institutions[institution] = true

		accounts = append(accounts, map[string]interface{}{
			"account_id":          a.AccountID,
			"name":                a.Name,
			"official_name":       deref(a.OfficialName),
			"type":                accountType,
			"subtype":             subtype,
			"institution_name":    institution,
			"mask":                deref(a.Mask),
			"balances":            balancePayload(a.Balances),
			"verification_status": deref(a.VerificationStatus),
		})
	}

	names := make([]string, 0, len(institutions))
	for name := range institutions {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"accounts": accounts,
		"summary": map[string]interface{}{
			"total_accounts": len(accounts),
			"by_type":        byType,
			"by_subtype":     bySubtype,
			"institutions":   names,
		},
	}, nil
}

// fetchTransactions retrieves the raw transaction list for an account and
// date range.
func (s *Service) fetchTransactions(ctx context.Context, accountID, startDate, endDate string, count int) ([]wireTransaction, error) {
	var resp struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	err := s.call(ctx, "get_transactions", map[string]interface{}{
		"account_id": accountID,
		"start_date": startDate,
		"end_date":   endDate,
		"count":      count,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (s *Service) listTransactions(ctx context.Context, accountID, startDate, endDate string, count int) (map[string]interface{}, error) {
	wire, err := s.fetchTransactions(ctx, accountID, startDate, endDate, count)
	if err != nil {
		return nil, err
	}

	var totalAmount float64
	byCategory := map[string]float64{}
	byAccount := map[string]float64{}

	transactions := make([]map[string]interface{}, 0, len(wire))
	for _, t := range wire {
		totalAmount += t.Amount
		byCategory[primaryCategory(t)] += t.Amount
		byAccount[t.AccountID] += t.Amount

		transactions = append(transactions, map[string]interface{}{
			"transaction_id": t.TransactionID,
			"account_id":     t.AccountID,
			"amount":         t.Amount,
			"date":           t.Date,
			"name":           t.Name,
			"merchant_name":  deref(t.MerchantName),
			"category":       t.Category,
			"pending":        t.Pending,
		})
	}

	return map[string]interface{}{
		"transactions": transactions,
		"analysis": map[string]interface{}{
			"total_transactions":      len(transactions),
			"total_amount":            totalAmount,
			"by_category":             byCategory,
			"by_account":              byAccount,
			"date_range":              map[string]string{"start": startDate, "end": endDate},
			"top_spending_categories": topAmounts(byCategory, 10),
		},
		"account_id": accountID,
	}, nil
}

func (s *Service) accountBalances(ctx context.Context, accountID string) (map[string]interface{}, error) {
	var resp struct {
		Balances wireBalances `json:"balances"`
	}
	err := s.call(ctx, "get_balances", map[string]interface{}{"account_id": accountID}, &resp)
	if err != nil {
		return nil, err
	}

	b := resp.Balances
	analysis := map[string]interface{}{
		"available_vs_current_diff": nil,
		"credit_utilization":        nil,
		"balance_status":            balanceStatus(b.Current),
	}
	if b.Available != nil && b.Current != nil {
		analysis["available_vs_current_diff"] = *b.Available - *b.Current
	}
	if b.Limit != nil && *b.Limit > 0 && b.Current != nil {
		analysis["credit_utilization"] = *b.Current / *b.Limit * 100
	}

	return map[string]interface{}{
		"account_id":       accountID,
		"balances":         balancePayload(b),
		"balance_analysis": analysis,
	}, nil
}

func (s *Service) accountIdentity(ctx context.Context, accountID string) (map[string]interface{}, error) {
	var resp struct {
		Identity struct {
			Names        []string `json:"names"`
			Emails       []string `json:"emails"`
			PhoneNumbers []string `json:"phone_numbers"`
			Addresses    []struct {
				Data    map[string]interface{} `json:"data"`
				Primary bool                   `json:"primary"`
			} `json:"addresses"`
		} `json:"identity"`
	}
	err := s.call(ctx, "get_identity", map[string]interface{}{"account_id": accountID}, &resp)
	if err != nil {
		return nil, err
	}

	addresses := make([]map[string]interface{}, 0, len(resp.Identity.Addresses))
	for _, addr := range resp.Identity.Addresses {
		addresses = append(addresses, map[string]interface{}{
			"data":    addr.Data,
			"primary": addr.Primary,
		})
	}

	return map[string]interface{}{
		"account_id": accountID,
		"identity": map[string]interface{}{
			"names":         resp.Identity.Names,
			"emails":        resp.Identity.Emails,
			"phone_numbers": resp.Identity.PhoneNumbers,
			"addresses":     addresses,
		},
	}, nil
}

// analyzeSpending classifies an account's transactions over the period:
// spending versus income totals, top categories and merchants, and the
// largest individual purchases.
func (s *Service) analyzeSpending(ctx context.Context, accountID, startDate, endDate string) (map[string]interface{}, error) {
	wire, err := s.fetchTransactions(ctx, accountID, startDate, endDate, maxTransactionCount)
	if err != nil {
		return nil, err
	}

	var totalSpending, totalIncome float64
	spendingCount := 0
	categorySpending := map[string]float64{}
	merchantSpending := map[string]float64{}
	type purchase struct {
		name   string
		amount float64
		date   string
	}
	var purchases []purchase

	for _, t := range wire {
		if t.Amount < 0 {
			amount := -t.Amount
			totalSpending += amount
			spendingCount++
			categorySpending[primaryCategory(t)] += amount
			merchant := deref(t.MerchantName)
			if merchant == "" {
				merchant = t.Name
			}
			if merchant == "" {
				merchant = "Unknown"
			}
			merchantSpending[merchant] += amount
			purchases = append(purchases, purchase{name: t.Name, amount: amount, date: t.Date})
		} else {
			totalIncome += t.Amount
		}
	}

	averageTransaction := 0.0
	if spendingCount > 0 {
		averageTransaction = totalSpending / float64(spendingCount)
	}

	sort.Slice(purchases, func(i, j int) bool { return purchases[i].amount > purchases[j].amount })
	if len(purchases) > 5 {
		purchases = purchases[:5]
	}
	largest := make([]map[string]interface{}, 0, len(purchases))
	for _, p := range purchases {
		largest = append(largest, map[string]interface{}{
			"name":   p.name,
			"amount": p.amount,
			"date":   p.date,
		})
	}

	insights := make([]string, 0, 3)
	if totalSpending > totalIncome {
		insights = append(insights, "spending exceeds income for this period")
	}
	if top := topAmounts(categorySpending, 1); len(top) > 0 {
		insights = append(insights, fmt.Sprintf("highest spending category: %s ($%.2f)",
			top[0]["name"], top[0]["amount"]))
	}
	if len(wire) > 0 {
		insights = append(insights, fmt.Sprintf("average %.1f transactions per day",
			float64(len(wire))/float64(periodDays(startDate, endDate))))
	}

	return map[string]interface{}{
		"account_id": accountID,
		"spending_analysis": map[string]interface{}{
			"period": map[string]string{"start": startDate, "end": endDate},
			"summary": map[string]interface{}{
				"total_spending":      totalSpending,
				"total_income":        totalIncome,
				"net_cash_flow":       totalIncome - totalSpending,
				"transaction_count":   len(wire),
				"average_transaction": averageTransaction,
			},
			"patterns": map[string]interface{}{
				"top_categories":       topAmounts(categorySpending, 10),
				"top_merchants":        topAmounts(merchantSpending, 10),
				"largest_transactions": largest,
			},
			"insights": insights,
		},
	}, nil
}

func primaryCategory(t wireTransaction) string {
	if len(t.Category) > 0 && t.Category[0] != "" {
		return t.Category[0]
	}
	return "Other"
}

func balancePayload(b wireBalances) map[string]interface{} {
	currency := b.ISOCurrencyCode
	if currency == "" {
		currency = "USD"
	}
	return map[string]interface{}{
		"available":                b.Available,
		"current":                  b.Current,
		"limit":                    b.Limit,
		"iso_currency_code":        currency,
		"unofficial_currency_code": deref(b.UnofficialCode),
	}
}

func balanceStatus(current *float64) string {
	switch {
	case current == nil || *current == 0:
		return "zero"
	case *current > 0:
		return "positive"
	default:
		return "negative"
	}
}

// topAmounts returns up to n name/amount pairs ordered by absolute amount,
// largest first. Ties keep a stable name order so output is deterministic.
func topAmounts(amounts map[string]float64, n int) []map[string]interface{} {
	names := make([]string, 0, len(amounts))
	for name := range amounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := abs(amounts[names[i]]), abs(amounts[names[j]])
		if ai != aj {
			return ai > aj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}

	top := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		top = append(top, map[string]interface{}{
			"name":   name,
			"amount": amounts[name],
		})
	}
	return top
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// periodDays counts whole days between two YYYY-MM-DD dates, never less
// than one so per-day averages stay defined.
func periodDays(start, end string) int {
	from, err1 := time.Parse("2006-01-02", start)
	to, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return 1
	}
	days := int(to.Sub(from).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
