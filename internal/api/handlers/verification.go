// verification.go — обработчики проверки подлинности.
// Оба endpoint публичные: покупатель сканирует QR до покупки,
// аккаунт для этого не требуется.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/errors"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/qr"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

// Максимальный размер загружаемого изображения QR-кода.
const maxQRImageSize = 10 << 20 // 10 MiB

// VerificationHandler — обработчик проверки подлинности.
type VerificationHandler struct {
	verification *service.VerificationService
	logger       *slog.Logger
}

// NewVerificationHandler создаёт обработчик проверки подлинности.
func NewVerificationHandler(verification *service.VerificationService, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{
		verification: verification,
		logger:       logger.With(slog.String("component", "verification_handler")),
	}
}

// VerifyImage — POST /api/v1/verify/qrcode
// Multipart-форма с полем qrCode: изображение QR-кода.
// Неизвестный отпечаток — это вердикт (200), а не ошибка;
// нечитаемое изображение — 400.
func (h *VerificationHandler) VerifyImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQRImageSize)
	if err := r.ParseMultipartForm(maxQRImageSize); err != nil {
		apierrors.ValidationError(w, "Invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("qrCode")
	if err != nil {
		apierrors.ValidationError(w, "Missing qrCode file field")
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		apierrors.ValidationError(w, "Failed to read uploaded file")
		return
	}

	result, err := h.verification.VerifyImage(r.Context(), imageBytes)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// verifyHashRequest — тело запроса проверки по отпечатку.
type verifyHashRequest struct {
	Hash string `json:"hash"`
}

// VerifyHash — POST /api/v1/verify/hash
func (h *VerificationHandler) VerifyHash(w http.ResponseWriter, r *http.Request) {
	var req verifyHashRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Hash) == "" {
		apierrors.ValidationError(w, "hash is required")
		return
	}

	result, err := h.verification.VerifyFingerprint(r.Context(), req.Hash)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeVerifyError переводит ошибки декодирования QR в 400,
// остальное — в общий маппинг.
func (h *VerificationHandler) writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qr.ErrUnreadableImage):
		apierrors.ValidationError(w, "Could not read a QR code from the uploaded image")
	case errors.Is(err, qr.ErrMalformedPayload), errors.Is(err, qr.ErrIncompletePayload):
		apierrors.ValidationError(w, "QR code does not contain a valid verification payload")
	default:
		writeServiceError(w, h.logger, err)
	}
}
