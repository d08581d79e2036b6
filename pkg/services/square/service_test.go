package square

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/toolbridge/pkg/config"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := New(config.SquareConfig{
		BaseURL:     server.URL,
		AccessToken: "sq-test",
	})
	require.NoError(t, err)
	return svc
}

func TestDollars(t *testing.T) {
	assert.Equal(t, 12.34, dollars(1234))
	assert.Equal(t, 0.0, dollars(0))
	assert.Equal(t, 0.01, dollars(1))
	assert.Equal(t, 100.0, dollars(10000))
}

func TestListLocations(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"locations": []map[string]interface{}{
				{
					"id":     "L1",
					"name":   "Downtown",
					"status": "ACTIVE",
					"address": map[string]string{
						"address_line_1": "1 Main St",
						"locality":       "Springfield",
						"country":        "US",
					},
				},
				{"id": "L2", "name": "Airport", "status": "INACTIVE"},
			},
		})
	}))

	payload, err := svc.listLocations(context.Background())
	require.NoError(t, err)

	locations := payload["locations"].([]map[string]interface{})
	require.Len(t, locations, 2)
	assert.Equal(t, "1 Main St, Springfield, US", locations[0]["address"])
	assert.NotContains(t, locations[1], "address")

	summary := payload["summary"].(map[string]int)
	assert.Equal(t, 2, summary["total_locations"])
}

func TestListOrdersConvertsCents(t *testing.T) {
	var gotBody map[string]interface{}
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"orders": []map[string]interface{}{
				{
					"id":          "o-1",
					"state":       "COMPLETED",
					"created_at":  "2026-08-28T10:00:00Z",
					"total_money": map[string]interface{}{"amount": 1250, "currency": "USD"},
				},
				{
					"id":         "o-2",
					"state":      "COMPLETED",
					"created_at": "2026-08-28T11:00:00Z",
					// No total_money on the wire; defaults to zero.
				},
			},
		})
	}))

	payload, err := svc.listOrders(context.Background(), "L1", 25)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"L1"}, gotBody["location_ids"])
	assert.NotContains(t, gotBody, "query", "listOrders applies no time filter")

	orders := payload["orders"].([]map[string]interface{})
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1250), orders[0]["amount_cents"])
	assert.Equal(t, 12.5, orders[0]["amount_dollars"])
	assert.Equal(t, "USD", orders[0]["currency"])
	assert.Equal(t, int64(0), orders[1]["amount_cents"])

	summary := payload["summary"].(map[string]interface{})
	assert.Equal(t, int64(1250), summary["total_amount_cents"])
	assert.Equal(t, 12.5, summary["total_amount_dollars"])
}

func TestSalesSummaryGroupsByDay(t *testing.T) {
	var gotBody map[string]interface{}
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"orders": []map[string]interface{}{
				{"id": "o-1", "created_at": "2026-08-27T09:00:00Z", "total_money": map[string]interface{}{"amount": 1000}},
				{"id": "o-2", "created_at": "2026-08-27T17:00:00Z", "total_money": map[string]interface{}{"amount": 500}},
				{"id": "o-3", "created_at": "2026-08-28T12:00:00Z", "total_money": map[string]interface{}{"amount": 2000}},
			},
		})
	}))

	payload, err := svc.salesSummary(context.Background(), "L1", 7)
	require.NoError(t, err)

	// A positive day window adds the created_at filter to the search body.
	query := gotBody["query"].(map[string]interface{})
	filter := query["filter"].(map[string]interface{})
	assert.Contains(t, filter, "date_time_filter")

	summary := payload["sales_summary"].(map[string]interface{})
	assert.Equal(t, 3, summary["order_count"])
	assert.Equal(t, int64(3500), summary["total_sales_cents"])
	assert.Equal(t, 35.0, summary["total_sales_dollars"])
	assert.Equal(t, int64(1166), summary["average_order_cents"])

	daily := summary["daily_sales"].(map[string]interface{})
	require.Len(t, daily, 2)
	day := daily["2026-08-27"].(map[string]interface{})
	assert.Equal(t, int64(1500), day["amount_cents"])
	assert.Equal(t, 15.0, day["amount_dollars"])
}

func TestSalesSummaryEmpty(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))

	payload, err := svc.salesSummary(context.Background(), "L1", 7)
	require.NoError(t, err)

	summary := payload["sales_summary"].(map[string]interface{})
	assert.Equal(t, 0, summary["order_count"])
	assert.Equal(t, int64(0), summary["average_order_cents"])
}
