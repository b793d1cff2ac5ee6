// complaints.go — жалобы покупателей на подозрительные препараты.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// Число попыток генерации свободного номера жалобы.
const complaintRefAttempts = 5

// CreateComplaintInput — данные новой жалобы.
type CreateComplaintInput struct {
	MedicineName    string `json:"medicineName"`
	MedicineDose    string `json:"medicineDose"`
	Manufacturer    string `json:"manufacturer"`
	BatchID         string `json:"batchId"`
	ManufactureDate string `json:"manufacturerDate"`
	ExpiryDate      string `json:"expiryDate"`
	Store           string `json:"store"`
	City            string `json:"city"`
	Description     string `json:"description"`
}

// ComplaintService — жалобы покупателей.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	artifactDir string
	logger      *slog.Logger
}

// NewComplaintService создаёт сервис жалоб.
// Фото QR-кодов из жалоб сохраняются под artifactDir/complaints.
func NewComplaintService(complaints repository.ComplaintRepository, artifactDir string, logger *slog.Logger) *ComplaintService {
	return &ComplaintService{
		complaints:  complaints,
		artifactDir: artifactDir,
		logger:      logger.With(slog.String("component", "complaints")),
	}
}

// Create регистрирует жалобу и присваивает ей внешний номер ALT-<5 цифр>.
// qrImage — опциональное фото QR-кода с упаковки; сохраняется на диск
// рядом с QR-артефактами каталога.
func (s *ComplaintService) Create(ctx context.Context, userID string, in *CreateComplaintInput, qrImage []byte) (*model.Complaint, error) {
	if strings.TrimSpace(in.MedicineName) == "" {
		return nil, fmt.Errorf("%w: medicineName обязателен", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description обязателен", ErrValidation)
	}

	ref, err := s.newComplaintRef(ctx)
	if err != nil {
		return nil, err
	}

	qrPath := ""
	if len(qrImage) > 0 {
		qrPath, err = s.writeAttachment(ref, qrImage)
		if err != nil {
			return nil, err
		}
	}

	c := &model.Complaint{
		ID:              uuid.NewString(),
		ComplaintRef:    ref,
		UserID:          userID,
		MedicineName:    in.MedicineName,
		MedicineDose:    in.MedicineDose,
		Manufacturer:    in.Manufacturer,
		BatchID:         in.BatchID,
		ManufactureDate: in.ManufactureDate,
		ExpiryDate:      in.ExpiryDate,
		Store:           in.Store,
		City:            in.City,
		QRCodePath:      qrPath,
		Description:     in.Description,
		Status:          model.ComplaintStatusPending,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		if qrPath != "" {
			if rmErr := os.Remove(qrPath); rmErr != nil {
				s.logger.Warn("Не удалось удалить файл жалобы", slog.String("path", qrPath))
			}
		}
		return nil, err
	}

	s.logger.Info("Жалоба зарегистрирована",
		slog.String("complaint_ref", ref),
		slog.String("user_id", userID),
	)
	return c, nil
}

// newComplaintRef подбирает свободный номер жалобы.
func (s *ComplaintService) newComplaintRef(ctx context.Context) (string, error) {
	for i := 0; i < complaintRefAttempts; i++ {
		ref := fmt.Sprintf("ALT-%05d", rand.Intn(100000))
		exists, err := s.complaints.RefExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
	return "", fmt.Errorf("не удалось подобрать свободный номер жалобы за %d попыток", complaintRefAttempts)
}

// writeAttachment сохраняет фото QR-кода жалобы на диск.
func (s *ComplaintService) writeAttachment(ref string, data []byte) (string, error) {
	dir := filepath.Join(s.artifactDir, "complaints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания каталога жалоб: %w", err)
	}
	path := filepath.Join(dir, ref+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("ошибка сохранения фото жалобы: %w", err)
	}
	return path, nil
}

// GetByID возвращает жалобу. Владелец видит только свои жалобы.
func (s *ComplaintService) GetByID(ctx context.Context, id, userID string, isAdmin bool) (*model.Complaint, error) {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// ListByUser возвращает жалобы пользователя.
func (s *ComplaintService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Complaint, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.complaints.ListByUser(ctx, userID, limit, offset)
}

// ListAll возвращает все жалобы (панель администратора).
func (s *ComplaintService) ListAll(ctx context.Context, status *string, limit, offset int) ([]*model.Complaint, int, error) {
	if status != nil && !model.ValidComplaintStatus(*status) {
		return nil, 0, fmt.Errorf("%w: недопустимый статус %q", ErrValidation, *status)
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.complaints.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.complaints.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Delete удаляет жалобу вместе с сохранённым фото.
// Владелец удаляет только свои жалобы.
func (s *ComplaintService) Delete(ctx context.Context, id, userID string, isAdmin bool) error {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && c.UserID != userID {
		return ErrForbidden
	}
	if err := s.complaints.Delete(ctx, id); err != nil {
		return err
	}
	if c.QRCodePath != "" {
		if err := os.Remove(c.QRCodePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Не удалось удалить файл жалобы",
				slog.String("path", c.QRCodePath),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// UpdateStatus меняет статус жалобы (панель администратора).
func (s *ComplaintService) UpdateStatus(ctx context.Context, id, status, adminRemarks string) (*model.Complaint, error) {
	if !model.ValidComplaintStatus(status) {
		return nil, fmt.Errorf("%w: недопустимый статус %q", ErrValidation, status)
	}
	if err := s.complaints.UpdateStatus(ctx, id, status, adminRemarks); err != nil {
		return nil, err
	}
	return s.complaints.GetByID(ctx, id)
}
