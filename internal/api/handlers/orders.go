// orders.go — обработчики заказов.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/middleware"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// OrderHandler — обработчик заказов.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger.With(slog.String("component", "order_handler")),
	}
}

// Create — POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}

	userID := middleware.SubjectFromContext(r.Context())
	order, err := h.orders.Create(r.Context(), userID, &in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListMine — GET /api/v1/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	userID := middleware.SubjectFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: orders, Limit: limit, Offset: offset})
}

// Get — GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := middleware.ClaimsFromContext(r.Context())

	order, err := h.orders.GetByID(r.Context(), id, claims.Subject, claims.IsAdmin())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel — DELETE /api/v1/orders/{id}
// Отменяет заказ и возвращает остатки в каталог.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := middleware.ClaimsFromContext(r.Context())

	if err := h.orders.Cancel(r.Context(), id, claims.Subject, claims.IsAdmin()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAll — GET /api/v1/admin/orders (только администратор).
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}

	orders, total, err := h.orders.ListAll(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: orders, Total: total, Limit: limit, Offset: offset})
}

// updateStatusRequest — тело запроса смены статуса.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus — PATCH /api/v1/admin/orders/{id}/status (только администратор).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
