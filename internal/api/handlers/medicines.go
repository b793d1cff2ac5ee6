// medicines.go — обработчики каталога препаратов.
// Просмотр каталога публичный; регистрация и удаление — только администратор.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// MedicineHandler — обработчик каталога препаратов.
type MedicineHandler struct {
	medicines *service.MedicineService
	logger    *slog.Logger
}

// NewMedicineHandler создаёт обработчик каталога.
func NewMedicineHandler(medicines *service.MedicineService, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{
		medicines: medicines,
		logger:    logger.With(slog.String("component", "medicine_handler")),
	}
}

// List — GET /api/v1/medicines
// Query: category, search, limit, offset.
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var filter repository.MedicineFilter
	if v := r.URL.Query().Get("category"); v != "" {
		filter.Category = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	items, total, err := h.medicines.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Featured — GET /api/v1/medicines/featured
// Три последних добавленных препарата для витрины.
func (h *MedicineHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.medicines.Featured(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get — GET /api/v1/medicines/{id}
func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	med, err := h.medicines.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// GetByBatch — GET /api/v1/medicines/batch/{batchId}
func (h *MedicineHandler) GetByBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	med, err := h.medicines.GetByBatchID(r.Context(), batchID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// Register — POST /api/v1/medicines (только администратор).
// Регистрирует партию: отпечаток, QR-артефакт, запись в реестр.
func (h *MedicineHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterMedicineInput
	if !decodeJSON(w, r, &in) {
		return
	}

	med, err := h.medicines.Register(r.Context(), &in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, med)
}

// Delete — DELETE /api/v1/medicines/{id} (только администратор).
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.medicines.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QRCode — GET /api/v1/medicines/{id}/qrcode
// Отдаёт PNG QR-кода партии.
func (h *MedicineHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	med, err := h.medicines.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if med.QRCodePath == "" {
		apierrors.NotFound(w, "QR code artifact not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, med.QRCodePath)
}
