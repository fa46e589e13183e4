package ordersapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asquebay/shop-gateway/internal/lib/logger"
	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/repository/cache"
	"github.com/asquebay/shop-gateway/internal/repository/memory"
	"github.com/asquebay/shop-gateway/internal/service/orders"
)

const validOrder = `{
	"user_id": 1,
	"items": [{"id": 1, "title": "Clavier mécanique", "price": 79.90, "qty": 2, "subtotal": 159.80}],
	"total": 159.80,
	"transaction_id": "tx-1700000000",
	"datetime": "2023-11-14T22:13:20Z"
}`

func newHandler() *Handler {
	svc := orders.NewOrderService(memory.NewOrderStore(), cache.NewOrderCache(), logger.Discard())
	return NewHandler(svc, logger.Discard())
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	h := newHandler()

	rec := do(h, http.MethodPost, "/orders", validOrder)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, model.UserID(1), order.UserID)
	assert.Equal(t, "159.80", order.Total.String())
	assert.Contains(t, rec.Body.String(), `"total":159.80`)

	rec = do(h, http.MethodPost, "/orders", validOrder)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(2), order.ID)
}

func TestCreateOrder_Invalid(t *testing.T) {
	h := newHandler()

	cases := map[string]string{
		"no user":        `{"items":[{"id":1,"qty":1}],"total":1}`,
		"null user":      `{"user_id":null,"items":[{"id":1,"qty":1}],"total":1}`,
		"no items":       `{"user_id":1,"items":[],"total":1}`,
		"no total":       `{"user_id":1,"items":[{"id":1,"qty":1}]}`,
		"negative total": `{"user_id":1,"items":[{"id":1,"qty":1}],"total":-1}`,
		"broken json":    `{"user_id":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/orders", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestListOrders(t *testing.T) {
	h := newHandler()

	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/orders", validOrder).Code)

	rec := do(h, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "tx-1700000000", list[0].TransactionID)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, 2, list[0].Items[0].Qty)

	rec = do(h, http.MethodGet, "/orders/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(h, http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(newHandler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"orders_service"}`, rec.Body.String())
}
