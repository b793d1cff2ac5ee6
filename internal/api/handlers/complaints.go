// complaints.go — обработчики жалоб покупателей.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/middleware"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// ComplaintHandler — обработчик жалоб.
type ComplaintHandler struct {
	complaints *service.ComplaintService
	logger     *slog.Logger
}

// NewComplaintHandler создаёт обработчик жалоб.
func NewComplaintHandler(complaints *service.ComplaintService, logger *slog.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaints: complaints,
		logger:     logger.With(slog.String("component", "complaint_handler")),
	}
}

// Create — POST /api/v1/complaints
// Принимает JSON либо multipart/form-data с опциональным фото QR-кода
// в поле qrCode.
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateComplaintInput
	var qrImage []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxQRImageSize)
		if err := r.ParseMultipartForm(maxQRImageSize); err != nil {
			apierrors.ValidationError(w, "Could not parse multipart form data")
			return
		}
		in = service.CreateComplaintInput{
			MedicineName:    r.FormValue("medicineName"),
			MedicineDose:    r.FormValue("medicineDose"),
			Manufacturer:    r.FormValue("manufacturer"),
			BatchID:         r.FormValue("batchId"),
			ManufactureDate: r.FormValue("manufacturerDate"),
			ExpiryDate:      r.FormValue("expiryDate"),
			Store:           r.FormValue("store"),
			City:            r.FormValue("city"),
			Description:     r.FormValue("description"),
		}

		file, _, err := r.FormFile("qrCode")
		switch {
		case err == nil:
			defer file.Close()
			qrImage, err = io.ReadAll(file)
			if err != nil {
				apierrors.ValidationError(w, "Could not read uploaded file")
				return
			}
		case errors.Is(err, http.ErrMissingFile):
			// фото опционально
		default:
			apierrors.ValidationError(w, "Could not read uploaded file")
			return
		}
	} else if !decodeJSON(w, r, &in) {
		return
	}

	userID := middleware.SubjectFromContext(r.Context())
	c, err := h.complaints.Create(r.Context(), userID, &in, qrImage)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListMine — GET /api/v1/complaints
func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	userID := middleware.SubjectFromContext(r.Context())

	list, err := h.complaints.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: list, Limit: limit, Offset: offset})
}

// Get — GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := middleware.ClaimsFromContext(r.Context())

	c, err := h.complaints.GetByID(r.Context(), id, claims.Subject, claims.IsAdmin())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete — DELETE /api/v1/complaints/{id}
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := middleware.ClaimsFromContext(r.Context())

	if err := h.complaints.Delete(r.Context(), id, claims.Subject, claims.IsAdmin()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAll — GET /api/v1/admin/complaints (только администратор).
func (h *ComplaintHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}

	list, total, err := h.complaints.ListAll(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: list, Total: total, Limit: limit, Offset: offset})
}

// updateComplaintRequest — тело запроса смены статуса жалобы.
type updateComplaintRequest struct {
	Status       string `json:"status"`
	AdminRemarks string `json:"adminRemarks"`
}

// UpdateStatus — PATCH /api/v1/admin/complaints/{id}/status (только администратор).
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateComplaintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.complaints.UpdateStatus(r.Context(), id, req.Status, req.AdminRemarks)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
