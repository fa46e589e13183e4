// Package ordersapi: HTTP-интерфейс сервиса заказов
package ordersapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/asquebay/shop-gateway/internal/model"
	"github.com/asquebay/shop-gateway/internal/service/orders"
	httptransport "github.com/asquebay/shop-gateway/internal/transport/http"
)

// OrderService определяет то, что хэндлеру нужно от сервисного слоя
type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
	ListByUser(ctx context.Context, userID model.UserID) ([]model.Order, error)
}

// Handler обрабатывает HTTP-запросы сервиса заказов
type Handler struct {
	service OrderService
	log     *slog.Logger
	mux     *http.ServeMux
}

// NewHandler создает новый экземпляр Handler
func NewHandler(service OrderService, log *slog.Logger) *Handler {
	h := &Handler{
		service: service,
		log:     log,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP делает Handler совместимым с http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /orders", h.createOrder)
	h.mux.HandleFunc("GET /orders/{user_id}", h.listOrders)
	h.mux.HandleFunc("GET /health", h.health)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := httptransport.DecodeJSON(w, r, &req); err != nil {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidOrder) {
			httptransport.RespondError(w, h.log, http.StatusBadRequest, "missing or invalid fields (user_id, items, total)")
			return
		}
		h.log.Error("internal server error", slog.String("error", err.Error()))
		httptransport.RespondError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	httptransport.RespondJSON(w, h.log, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := model.ParseUserID(r.PathValue("user_id"))
	if err != nil {
		httptransport.RespondError(w, h.log, http.StatusBadRequest, "user_id must be an integer")
		return
	}

	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error("internal server error", slog.String("error", err.Error()))
		httptransport.RespondError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	httptransport.RespondJSON(w, h.log, http.StatusOK, list)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httptransport.RespondJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok", "service": "orders_service"})
}
