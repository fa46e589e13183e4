package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/asquebay/shop-gateway/internal/model"
)

// OrdersClient ходит в сервис заказов по JSON/HTTP
type OrdersClient struct {
	client  *resty.Client
	timeout time.Duration
	log     *slog.Logger
}

// NewOrdersClient создаёт клиента сервиса заказов
func NewOrdersClient(baseURL string, timeout time.Duration, log *slog.Logger) *OrdersClient {
	return &OrdersClient{
		client:  newRestClient(baseURL),
		timeout: timeout,
		log:     log.With(slog.String("component", "orders_client")),
	}
}

// Record отправляет заказ; всё, кроме 201, считается отказом
func (c *OrdersClient) Record(ctx context.Context, order model.OrderRequest) error {
	const op = "clients.OrdersClient.Record"
	log := c.log.With(
		slog.String("op", op),
		slog.String("endpoint", "/orders"),
		slog.String("transaction_id", order.TransactionID),
	)

	r, cancel := request(ctx, c.client, c.timeout)
	defer cancel()

	resp, err := r.SetBody(order).Post("/orders")
	if err != nil {
		log.Error("orders service request failed", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w: %w", op, ErrOrdersUnavailable, err)
	}

	if resp.StatusCode() != http.StatusCreated {
		msg := upstreamMessage(resp.Body())
		log.Error("orders service returned unexpected status",
			slog.Int("status", resp.StatusCode()),
			slog.String("message", msg),
		)
		return fmt.Errorf("%s: %w", op, &UpstreamError{Kind: ErrOrdersUnavailable, Status: resp.StatusCode(), Message: msg})
	}

	var created model.Order
	if err := json.Unmarshal(resp.Body(), &created); err == nil {
		log.Info("order recorded", slog.Int64("order_id", created.ID))
	}
	return nil
}

// ListByUser возвращает историю заказов пользователя
func (c *OrdersClient) ListByUser(ctx context.Context, userID model.UserID) ([]model.Order, error) {
	const op = "clients.OrdersClient.ListByUser"
	endpoint := "/orders/" + userID.String()
	log := c.log.With(slog.String("op", op), slog.String("endpoint", endpoint))

	r, cancel := request(ctx, c.client, c.timeout)
	defer cancel()

	resp, err := r.Get(endpoint)
	if err != nil {
		log.Error("orders service request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrOrdersUnavailable, err)
	}

	if resp.StatusCode() != http.StatusOK {
		log.Error("orders service returned unexpected status", slog.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%s: %w", op, &UpstreamError{Kind: ErrOrdersUnavailable, Status: resp.StatusCode()})
	}

	orders := make([]model.Order, 0)
	if err := json.Unmarshal(resp.Body(), &orders); err != nil {
		log.Error("failed to decode orders", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrOrdersUnavailable, err)
	}

	return orders, nil
}
