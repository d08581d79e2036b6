// Package square wraps Square's locations and orders endpoints as
// synchronous tools, converting the API's cent amounts into explicit
// cents/dollars pairs.
package square

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/remote"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type Service struct {
	client *remote.Client
	logger *slog.Logger
}

func New(cfg config.SquareConfig) (*Service, error) {
	client, err := remote.New(remote.Config{
		BaseURL:   cfg.BaseURL,
		AuthValue: bearer(cfg.AccessToken),
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		client: client,
		logger: log.WithComponent("square"),
	}, nil
}

func bearer(t string) string {
	if t == "" {
		return ""
	}
	return "Bearer " + t
}

func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&listLocationsTool{service: s},
		&listOrdersTool{service: s},
		&salesSummaryTool{service: s},
	}
}

type wireMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type wireLocation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Timezone string `json:"timezone"`
	Address  *struct {
		AddressLine1 string `json:"address_line_1"`
		Locality     string `json:"locality"`
		Country      string `json:"country"`
	} `json:"address"`
}

type wireOrder struct {
	ID         string     `json:"id"`
	LocationID string     `json:"location_id"`
	State      string     `json:"state"`
	CreatedAt  string     `json:"created_at"`
	TotalMoney *wireMoney `json:"total_money"`
}

func dollars(cents int64) float64 {
	return math.Round(float64(cents)) / 100
}

func (s *Service) listLocations(ctx context.Context) (map[string]interface{}, error) {
	raw, err := s.client.Do(ctx, remote.Request{Endpoint: "/locations"})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Locations []wireLocation `json:"locations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed locations response: %v", err)}
	}

	locations := make([]map[string]interface{}, 0, len(resp.Locations))
	for _, l := range resp.Locations {
		entry := map[string]interface{}{
			"id":       l.ID,
			"name":     l.Name,
			"status":   l.Status,
			"timezone": l.Timezone,
		}
		if l.Address != nil {
			entry["address"] = fmt.Sprintf("%s, %s, %s", l.Address.AddressLine1, l.Address.Locality, l.Address.Country)
		}
		locations = append(locations, entry)
	}

	return map[string]interface{}{
		"locations": locations,
		"summary":   map[string]int{"total_locations": len(locations)},
	}, nil
}

// searchOrders fetches orders for a location created within the last
// `days` days (0 means no time filter).
func (s *Service) searchOrders(ctx context.Context, locationID string, days, limit int) ([]wireOrder, error) {
	body := map[string]interface{}{
		"location_ids": []string{locationID},
		"limit":        limit,
	}
	if days > 0 {
		start := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)
		body["query"] = map[string]interface{}{
			"filter": map[string]interface{}{
				"date_time_filter": map[string]interface{}{
					"created_at": map[string]string{"start_at": start},
				},
			},
		}
	}

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/orders/search",
		Method:   "POST",
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Orders []wireOrder `json:"orders"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed orders response: %v", err)}
	}
	return resp.Orders, nil
}

func (s *Service) listOrders(ctx context.Context, locationID string, limit int) (map[string]interface{}, error) {
	wire, err := s.searchOrders(ctx, locationID, 0, limit)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	orders := make([]map[string]interface{}, 0, len(wire))
	for _, o := range wire {
		var cents int64
		currency := ""
		if o.TotalMoney != nil {
			cents = o.TotalMoney.Amount
			currency = o.TotalMoney.Currency
		}
		totalCents += cents
		orders = append(orders, map[string]interface{}{
			"id":             o.ID,
			"state":          o.State,
			"created_at":     o.CreatedAt,
			"amount_cents":   cents,
			"amount_dollars": dollars(cents),
			"currency":       currency,
		})
	}

	return map[string]interface{}{
		"orders": orders,
		"summary": map[string]interface{}{
			"location_id":          locationID,
			"order_count":          len(orders),
			"total_amount_cents":   totalCents,
			"total_amount_dollars": dollars(totalCents),
		},
	}, nil
}

func (s *Service) salesSummary(ctx context.Context, locationID string, days int) (map[string]interface{}, error) {
	wire, err := s.searchOrders(ctx, locationID, days, 500)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	daily := map[string]int64{}
	for _, o := range wire {
		var cents int64
		if o.TotalMoney != nil {
			cents = o.TotalMoney.Amount
		}
		totalCents += cents
		if len(o.CreatedAt) >= 10 {
			daily[o.CreatedAt[:10]] += cents
		}
	}

	dailySales := make(map[string]interface{}, len(daily))
	for day, cents := range daily {
		dailySales[day] = map[string]interface{}{
			"amount_cents":   cents,
			"amount_dollars": dollars(cents),
		}
	}

	avgOrder := int64(0)
	if len(wire) > 0 {
		avgOrder = totalCents / int64(len(wire))
	}

	return map[string]interface{}{
		"sales_summary": map[string]interface{}{
			"location_id":               locationID,
			"period_days":               days,
			"order_count":               len(wire),
			"total_sales_cents":         totalCents,
			"total_sales_dollars":       dollars(totalCents),
			"average_order_cents":       avgOrder,
			"average_order_dollars":     dollars(avgOrder),
			"daily_sales":               dailySales,
		},
	}, nil
}
