package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/toolbridge/pkg/config"
)

// fakeGateway answers the single-endpoint tool protocol: every request is a
// POST carrying {"tool", "arguments"} and the response depends on the tool.
type fakeGateway struct {
	responses map[string]interface{}
	lastTool  string
	lastArgs  map[string]interface{}
	auth      string
}

func (f *fakeGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.auth = r.Header.Get("Authorization")
		var body struct {
			Tool      string                 `json:"tool"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastTool = body.Tool
		f.lastArgs = body.Arguments
		json.NewEncoder(w).Encode(f.responses[body.Tool])
	}
}

func newTestService(t *testing.T, gateway *fakeGateway) *Service {
	t.Helper()
	server := httptest.NewServer(gateway.handler())
	t.Cleanup(server.Close)

	svc, err := New(config.PlaidConfig{
		BaseURL:  server.URL,
		ClientID: "client-1",
		Secret:   "secret-1",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return svc
}

func f64(v float64) *float64 { return &v }

func TestCredential(t *testing.T) {
	// base64("client-1:secret-1")
	assert.Equal(t, "Bearer Y2xpZW50LTE6c2VjcmV0LTE=", credential("client-1", "secret-1"))
	assert.Equal(t, "", credential("", ""))
}

func TestListAccounts(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_accounts": map[string]interface{}{
			"accounts": []map[string]interface{}{
				{
					"account_id":       "acc-1",
					"name":             "Checking",
					"type":             "depository",
					"subtype":          "checking",
					"institution_name": "First Bank",
					"balances":         map[string]interface{}{"current": 1200.50},
				},
				{
					"account_id":       "acc-2",
					"name":             "Card",
					"type":             "credit",
					"subtype":          "credit card",
					"institution_name": "First Bank",
				},
				{
					"account_id": "acc-3",
					"name":       "Mystery",
				},
			},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.listAccounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "get_accounts", gateway.lastTool)
	assert.Equal(t, "Bearer Y2xpZW50LTE6c2VjcmV0LTE=", gateway.auth)

	accounts := payload["accounts"].([]map[string]interface{})
	require.Len(t, accounts, 3)
	assert.Equal(t, "unknown", accounts[2]["type"])
	assert.Equal(t, "Unknown", accounts[2]["institution_name"])

	balances := accounts[0]["balances"].(map[string]interface{})
	assert.Equal(t, 1200.50, *balances["current"].(*float64))
	assert.Nil(t, balances["available"].(*float64))

	summary := payload["summary"].(map[string]interface{})
	assert.Equal(t, 3, summary["total_accounts"])
	byType := summary["by_type"].(map[string]int)
	assert.Equal(t, 1, byType["depository"])
	assert.Equal(t, 1, byType["credit"])
	assert.Equal(t, 1, byType["unknown"])
	assert.Equal(t, []string{"First Bank", "Unknown"}, summary["institutions"])
}

func TestListTransactions(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_transactions": map[string]interface{}{
			"transactions": []map[string]interface{}{
				{
					"transaction_id": "t-1",
					"account_id":     "acc-1",
					"amount":         -42.10,
					"date":           "2026-08-20",
					"name":           "Grocer",
					"category":       []string{"Food and Drink", "Groceries"},
				},
				{
					"transaction_id": "t-2",
					"account_id":     "acc-1",
					"amount":         1500.0,
					"date":           "2026-08-21",
					"name":           "Payroll",
				},
			},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.listTransactions(context.Background(), "acc-1", "2026-08-01", "2026-08-29", 100)
	require.NoError(t, err)

	assert.Equal(t, "acc-1", gateway.lastArgs["account_id"])
	assert.Equal(t, float64(100), gateway.lastArgs["count"])

	transactions := payload["transactions"].([]map[string]interface{})
	require.Len(t, transactions, 2)
	assert.Equal(t, []string{"Food and Drink", "Groceries"}, transactions[0]["category"])

	analysis := payload["analysis"].(map[string]interface{})
	assert.Equal(t, 2, analysis["total_transactions"])
	assert.InDelta(t, 1457.90, analysis["total_amount"].(float64), 0.001)

	byCategory := analysis["by_category"].(map[string]float64)
	assert.InDelta(t, -42.10, byCategory["Food and Drink"], 0.001)
	assert.InDelta(t, 1500.0, byCategory["Other"], 0.001)

	// Ordered by absolute amount, largest first.
	top := analysis["top_spending_categories"].([]map[string]interface{})
	require.Len(t, top, 2)
	assert.Equal(t, "Other", top[0]["name"])
	assert.Equal(t, "Food and Drink", top[1]["name"])
}

func TestAccountBalances(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_balances": map[string]interface{}{
			"balances": map[string]interface{}{
				"available":         900.0,
				"current":           750.0,
				"limit":             3000.0,
				"iso_currency_code": "EUR",
			},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.accountBalances(context.Background(), "acc-1")
	require.NoError(t, err)

	balances := payload["balances"].(map[string]interface{})
	assert.Equal(t, "EUR", balances["iso_currency_code"])

	analysis := payload["balance_analysis"].(map[string]interface{})
	assert.Equal(t, 150.0, analysis["available_vs_current_diff"])
	assert.Equal(t, 25.0, analysis["credit_utilization"])
	assert.Equal(t, "positive", analysis["balance_status"])
}

func TestAccountBalancesAbsentFields(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_balances": map[string]interface{}{
			"balances": map[string]interface{}{},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.accountBalances(context.Background(), "acc-1")
	require.NoError(t, err)

	// Absent balances stay null rather than collapsing to zero, and the
	// derived metrics stay undefined rather than dividing by defaults.
	analysis := payload["balance_analysis"].(map[string]interface{})
	assert.Nil(t, analysis["available_vs_current_diff"])
	assert.Nil(t, analysis["credit_utilization"])
	assert.Equal(t, "zero", analysis["balance_status"])

	balances := payload["balances"].(map[string]interface{})
	assert.Nil(t, balances["current"].(*float64))
	assert.Equal(t, "USD", balances["iso_currency_code"])
}

func TestAccountIdentity(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_identity": map[string]interface{}{
			"identity": map[string]interface{}{
				"names":  []string{"Pat Doe"},
				"emails": []string{"pat@example.com"},
				"addresses": []map[string]interface{}{
					{"data": map[string]interface{}{"city": "Springfield"}, "primary": true},
				},
			},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.accountIdentity(context.Background(), "acc-1")
	require.NoError(t, err)

	identity := payload["identity"].(map[string]interface{})
	assert.Equal(t, []string{"Pat Doe"}, identity["names"])
	addresses := identity["addresses"].([]map[string]interface{})
	require.Len(t, addresses, 1)
	assert.Equal(t, true, addresses[0]["primary"])
}

func TestAnalyzeSpending(t *testing.T) {
	gateway := &fakeGateway{responses: map[string]interface{}{
		"get_transactions": map[string]interface{}{
			"transactions": []map[string]interface{}{
				{"transaction_id": "t-1", "amount": -300.0, "date": "2026-08-12", "name": "Rent Co", "category": []string{"Rent"}},
				{"transaction_id": "t-2", "amount": -60.0, "date": "2026-08-13", "name": "Grocer", "merchant_name": "Grocer", "category": []string{"Food and Drink"}},
				{"transaction_id": "t-3", "amount": -40.0, "date": "2026-08-14", "name": "Grocer", "merchant_name": "Grocer", "category": []string{"Food and Drink"}},
				{"transaction_id": "t-4", "amount": 250.0, "date": "2026-08-15", "name": "Refund"},
			},
		},
	}}
	svc := newTestService(t, gateway)

	payload, err := svc.analyzeSpending(context.Background(), "acc-1", "2026-08-11", "2026-08-21")
	require.NoError(t, err)

	// The analysis always requests the full window of transactions.
	assert.Equal(t, float64(maxTransactionCount), gateway.lastArgs["count"])

	analysis := payload["spending_analysis"].(map[string]interface{})
	summary := analysis["summary"].(map[string]interface{})
	assert.Equal(t, 400.0, summary["total_spending"])
	assert.Equal(t, 250.0, summary["total_income"])
	assert.Equal(t, -150.0, summary["net_cash_flow"])
	assert.Equal(t, 4, summary["transaction_count"])
	assert.InDelta(t, 133.333, summary["average_transaction"].(float64), 0.001)

	patterns := analysis["patterns"].(map[string]interface{})
	topCategories := patterns["top_categories"].([]map[string]interface{})
	assert.Equal(t, "Rent", topCategories[0]["name"])
	topMerchants := patterns["top_merchants"].([]map[string]interface{})
	assert.Equal(t, "Rent Co", topMerchants[0]["name"])
	assert.Equal(t, 100.0, topMerchants[1]["amount"])

	largest := patterns["largest_transactions"].([]map[string]interface{})
	require.Len(t, largest, 3)
	assert.Equal(t, 300.0, largest[0]["amount"])

	insights := analysis["insights"].([]string)
	require.Len(t, insights, 3)
	assert.Contains(t, insights[0], "spending exceeds income")
	assert.Contains(t, insights[1], "Rent")
	assert.Contains(t, insights[2], "0.4 transactions per day")
}

func TestCountArgClamped(t *testing.T) {
	assert.Equal(t, 100, countArg(map[string]interface{}{}, 100))
	assert.Equal(t, 25, countArg(map[string]interface{}{"count": float64(25)}, 100))
	assert.Equal(t, 1, countArg(map[string]interface{}{"count": float64(0)}, 100))
	assert.Equal(t, 500, countArg(map[string]interface{}{"count": 9999}, 100))
}

func TestPeriodDays(t *testing.T) {
	assert.Equal(t, 10, periodDays("2026-08-11", "2026-08-21"))
	assert.Equal(t, 1, periodDays("2026-08-11", "2026-08-11"))
	assert.Equal(t, 1, periodDays("bad", "2026-08-21"))
}
