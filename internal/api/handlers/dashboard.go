// dashboard.go — обработчики панели администратора.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// DashboardHandler — обработчик панели администратора.
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

// NewDashboardHandler создаёт обработчик панели администратора.
func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Stats — GET /api/v1/admin/dashboard
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExportOrdersCSV — GET /api/v1/admin/dashboard/orders.csv
func (h *DashboardHandler) ExportOrdersCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)

	if err := h.dashboard.ExportOrdersCSV(r.Context(), w); err != nil {
		// Заголовки уже могли уйти клиенту; логируем и, если возможно, отвечаем 500
		h.logger.Error("Ошибка выгрузки CSV", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to export orders")
	}
}

// ExportMedicinesCSV — GET /api/v1/admin/dashboard/medicines.csv
func (h *DashboardHandler) ExportMedicinesCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="medicines.csv"`)

	if err := h.dashboard.ExportMedicinesCSV(r.Context(), w); err != nil {
		h.logger.Error("Ошибка выгрузки CSV", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to export medicines")
	}
}
