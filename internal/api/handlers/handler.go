// handler.go — общие вспомогательные функции обработчиков API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// listResponse — обёртка списочных ответов с пагинацией.
type listResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total,omitempty"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// parsePagination извлекает limit и offset из query-параметров.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// decodeJSON разбирает тело запроса в dst.
// При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неожиданные ошибки логируются и маскируются как 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		apierrors.Conflict(w, "Insufficient stock for one of the requested items")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Access to this resource is denied")
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(w, "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		apierrors.Conflict(w, "Resource already exists")
	case errors.Is(err, ledger.ErrUnavailable):
		apierrors.LedgerUnavailable(w, "Blockchain registry is temporarily unavailable")
	case errors.Is(err, service.ErrPaymentUnavailable):
		apierrors.PaymentUnavailable(w, "Payment provider is temporarily unavailable")
	default:
		logger.Error("Необработанная ошибка сервисного слоя",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Internal server error")
	}
}
