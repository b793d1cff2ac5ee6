package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// mockComplaintRepo — мок репозитория жалоб.
type mockComplaintRepo struct {
	created   *model.Complaint
	getByID   func(ctx context.Context, id string) (*model.Complaint, error)
	deleted   []string
	createErr error
}

func (m *mockComplaintRepo) Create(_ context.Context, c *model.Complaint) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = c
	return nil
}

func (m *mockComplaintRepo) GetByID(ctx context.Context, id string) (*model.Complaint, error) {
	return m.getByID(ctx, id)
}

func (m *mockComplaintRepo) RefExists(context.Context, string) (bool, error) { return false, nil }

func (m *mockComplaintRepo) ListByUser(context.Context, string, int, int) ([]*model.Complaint, error) {
	panic("не используется")
}

func (m *mockComplaintRepo) List(context.Context, *string, int, int) ([]*model.Complaint, error) {
	panic("не используется")
}

func (m *mockComplaintRepo) UpdateStatus(context.Context, string, string, string) error {
	panic("не используется")
}

func (m *mockComplaintRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockComplaintRepo) Count(context.Context, *string) (int, error) { panic("не используется") }

func validComplaintInput() *CreateComplaintInput {
	return &CreateComplaintInput{
		MedicineName: "Ibuprofen 200mg",
		Manufacturer: "HealWell Labs",
		BatchID:      "PM-9999",
		Description:  "QR code does not scan",
	}
}

func TestComplaintCreateValidation(t *testing.T) {
	svc := NewComplaintService(&mockComplaintRepo{}, t.TempDir(), testLogger())

	in := validComplaintInput()
	in.MedicineName = "  "
	if _, err := svc.Create(context.Background(), "user-1", in, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Без medicineName: %v, хотели ErrValidation", err)
	}

	in = validComplaintInput()
	in.Description = ""
	if _, err := svc.Create(context.Background(), "user-1", in, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Без description: %v, хотели ErrValidation", err)
	}
}

func TestComplaintCreateWithAttachment(t *testing.T) {
	repo := &mockComplaintRepo{}
	dir := t.TempDir()
	svc := NewComplaintService(repo, dir, testLogger())

	qrImage := []byte("png-bytes")
	c, err := svc.Create(context.Background(), "user-1", validComplaintInput(), qrImage)
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if ok, _ := regexp.MatchString(`^ALT-\d{5}$`, c.ComplaintRef); !ok {
		t.Errorf("ComplaintRef = %q, хотели формат ALT-<5 цифр>", c.ComplaintRef)
	}
	if c.Status != model.ComplaintStatusPending {
		t.Errorf("Status = %q, хотели %q", c.Status, model.ComplaintStatusPending)
	}

	wantPath := filepath.Join(dir, "complaints", c.ComplaintRef+".png")
	if c.QRCodePath != wantPath {
		t.Errorf("QRCodePath = %q, хотели %q", c.QRCodePath, wantPath)
	}
	data, err := os.ReadFile(c.QRCodePath)
	if err != nil {
		t.Fatalf("Фото не сохранено: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Содержимое файла = %q", data)
	}
}

func TestComplaintCreateCleansUpOnRepoError(t *testing.T) {
	repo := &mockComplaintRepo{createErr: errors.New("БД недоступна")}
	dir := t.TempDir()
	svc := NewComplaintService(repo, dir, testLogger())

	_, err := svc.Create(context.Background(), "user-1", validComplaintInput(), []byte("png-bytes"))
	if err == nil {
		t.Fatal("Create() не вернул ошибку при сбое репозитория")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "complaints"))
	if err == nil && len(entries) != 0 {
		t.Errorf("Фото не удалено при сбое создания: %d файлов", len(entries))
	}
}

func TestComplaintDelete(t *testing.T) {
	dir := t.TempDir()
	qrPath := filepath.Join(dir, "ALT-11111.png")
	if err := os.WriteFile(qrPath, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	stored := &model.Complaint{
		ID:         "00000000-0000-0000-0000-000000000002",
		UserID:     "user-1",
		QRCodePath: qrPath,
	}
	repo := &mockComplaintRepo{
		getByID: func(context.Context, string) (*model.Complaint, error) { return stored, nil },
	}
	svc := NewComplaintService(repo, dir, testLogger())

	// Чужую жалобу удалить нельзя
	if err := svc.Delete(context.Background(), stored.ID, "user-2", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("Удаление чужой жалобы: %v, хотели ErrForbidden", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("Репозиторий вызван при запрете удаления")
	}

	// Владелец удаляет вместе с фото
	if err := svc.Delete(context.Background(), stored.ID, "user-1", false); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != stored.ID {
		t.Errorf("Удалённые записи: %v", repo.deleted)
	}
	if _, err := os.Stat(qrPath); !os.IsNotExist(err) {
		t.Error("Фото жалобы не удалено с диска")
	}
}
