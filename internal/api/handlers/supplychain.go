// supplychain.go — обработчики прослеживаемости партий.
// Просмотр по коду партии публичный: страница проверки показывает
// цепочку поставок вместе с вердиктом.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// SupplyChainHandler — обработчик цепочек поставок.
type SupplyChainHandler struct {
	supplyChains *service.SupplyChainService
	logger       *slog.Logger
}

// NewSupplyChainHandler создаёт обработчик цепочек поставок.
func NewSupplyChainHandler(supplyChains *service.SupplyChainService, logger *slog.Logger) *SupplyChainHandler {
	return &SupplyChainHandler{
		supplyChains: supplyChains,
		logger:       logger.With(slog.String("component", "supplychain_handler")),
	}
}

// Get — GET /api/v1/supply-chain/{batchId}
func (h *SupplyChainHandler) Get(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	sc, err := h.supplyChains.GetByBatchID(r.Context(), batchID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// List — GET /api/v1/supply-chain (только администратор).
func (h *SupplyChainHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	list, err := h.supplyChains.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: list, Limit: limit, Offset: offset})
}
