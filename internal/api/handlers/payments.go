// payments.go — обработчики платежей (Stripe embedded checkout и cod).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/middleware"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// PaymentHandler — обработчик платежей.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler создаёт обработчик платежей.
func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger.With(slog.String("component", "payment_handler")),
	}
}

// checkoutRequest — тело запроса создания checkout-сессии.
type checkoutRequest struct {
	OrderID string `json:"orderId"`
}

// CreateCheckoutSession — POST /api/v1/payments/checkout-session
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		apierrors.ValidationError(w, "orderId is required")
		return
	}

	userID := middleware.SubjectFromContext(r.Context())
	sess, err := h.payments.CreateCheckoutSession(r.Context(), userID, req.OrderID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// SessionStatus — GET /api/v1/payments/session-status?session_id=...
func (h *PaymentHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		apierrors.ValidationError(w, "session_id query parameter is required")
		return
	}

	userID := middleware.SubjectFromContext(r.Context())
	payment, err := h.payments.SessionStatus(r.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// codRequest — тело запроса регистрации наложенного платежа.
type codRequest struct {
	OrderID string `json:"orderId"`
}

// RecordCOD — POST /api/v1/payments/cod
func (h *PaymentHandler) RecordCOD(w http.ResponseWriter, r *http.Request) {
	var req codRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		apierrors.ValidationError(w, "orderId is required")
		return
	}

	userID := middleware.SubjectFromContext(r.Context())
	payment, err := h.payments.RecordCOD(r.Context(), userID, req.OrderID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// GetByOrder — GET /api/v1/payments/order/{orderId}
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	claims := middleware.ClaimsFromContext(r.Context())

	payment, err := h.payments.GetByOrder(r.Context(), claims.Subject, orderID, claims.IsAdmin())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// ListMine — GET /api/v1/payments
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	userID := middleware.SubjectFromContext(r.Context())

	payments, err := h.payments.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: payments, Limit: limit, Offset: offset})
}
