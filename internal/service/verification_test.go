package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/fingerprint"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// --- Моки ---

// mockMedicineRepo — мок репозитория препаратов.
// Реализован только поиск по отпечатку, остальные методы не используются.
type mockMedicineRepo struct {
	getByFingerprint func(ctx context.Context, fp string) (*model.Medicine, error)
	calls            int
}

func (m *mockMedicineRepo) GetByFingerprint(ctx context.Context, fp string) (*model.Medicine, error) {
	m.calls++
	return m.getByFingerprint(ctx, fp)
}

func (m *mockMedicineRepo) Create(context.Context, *model.Medicine) error { panic("не используется") }
func (m *mockMedicineRepo) GetByID(context.Context, string) (*model.Medicine, error) {
	panic("не используется")
}
func (m *mockMedicineRepo) GetByBatchID(context.Context, string) (*model.Medicine, error) {
	panic("не используется")
}
func (m *mockMedicineRepo) List(context.Context, repository.MedicineFilter, int, int) ([]*model.Medicine, error) {
	panic("не используется")
}
func (m *mockMedicineRepo) Count(context.Context, repository.MedicineFilter) (int, error) {
	panic("не используется")
}
func (m *mockMedicineRepo) DecrementStock(context.Context, string, int) error {
	panic("не используется")
}
func (m *mockMedicineRepo) IncrementStock(context.Context, string, int) error {
	panic("не используется")
}
func (m *mockMedicineRepo) Delete(context.Context, string) error { panic("не используется") }

// mockLedger — мок клиента реестра.
type mockLedger struct {
	verify   func(ctx context.Context, fp string) (*ledger.Record, error)
	register func(ctx context.Context, fp, batchID string) (*ledger.Receipt, error)
}

func (m *mockLedger) Verify(ctx context.Context, fp string) (*ledger.Record, error) {
	return m.verify(ctx, fp)
}

func (m *mockLedger) Register(ctx context.Context, fp, batchID string) (*ledger.Receipt, error) {
	return m.register(ctx, fp, batchID)
}

// --- Вспомогательные ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestVerification собирает сервис с моками и фиксированным временем.
func newTestVerification(repo *mockMedicineRepo, lg ledger.Client) *VerificationService {
	svc := NewVerificationService(repo, NewMedicineCache(16, time.Minute), lg, testLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

// verifiedMedicine возвращает препарат с отпечатком и сроком годности.
func verifiedMedicine(t *testing.T, expiry time.Time) *model.Medicine {
	t.Helper()
	fp, err := fingerprint.Derive("PM-777", "HealWell Labs", expiry, "Amoxicillin 250mg")
	if err != nil {
		t.Fatalf("Ошибка вычисления отпечатка: %v", err)
	}
	return &model.Medicine{
		ID:           "00000000-0000-0000-0000-000000000001",
		ProductName:  "Amoxicillin 250mg",
		ChemicalName: "Amoxicillin",
		Manufacturer: "HealWell Labs",
		Category:     "Antibiotics",
		BatchID:      "PM-777",
		ExpiryDate:   expiry,
		Fingerprint:  fp,
	}
}

func okLedger(t *testing.T) *mockLedger {
	t.Helper()
	return &mockLedger{
		verify: func(_ context.Context, fp string) (*ledger.Record, error) {
			return &ledger.Record{IsValid: true, BatchID: "PM-777", RegisteredAt: testNow.Add(-24 * time.Hour)}, nil
		},
	}
}

// --- Тесты ---

func TestVerifyUnknownFingerprint(t *testing.T) {
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return nil, repository.ErrNotFound
		},
	}
	lg := &mockLedger{
		verify: func(context.Context, string) (*ledger.Record, error) {
			t.Fatal("Реестр не должен опрашиваться для неизвестного отпечатка")
			return nil, nil
		},
	}
	svc := newTestVerification(repo, lg)

	unknown := strings.Repeat("ab", 32)
	result, err := svc.VerifyFingerprint(context.Background(), unknown)
	if err != nil {
		t.Fatalf("VerifyFingerprint() ошибка: %v", err)
	}

	if result.IsValid {
		t.Error("IsValid = true для неизвестного отпечатка")
	}
	if result.IsDistributed {
		t.Error("IsDistributed = true для неизвестного отпечатка")
	}
	if result.Message != msgNotDistributed {
		t.Errorf("Message = %q, хотели %q", result.Message, msgNotDistributed)
	}
	if result.Medicine != nil {
		t.Error("Medicine != nil для неизвестного отпечатка")
	}
}

func TestVerifyMalformedFingerprint(t *testing.T) {
	svc := newTestVerification(&mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			t.Fatal("Хранилище не должно опрашиваться для некорректного отпечатка")
			return nil, nil
		},
	}, okLedger(t))

	_, err := svc.VerifyFingerprint(context.Background(), "not-a-hash")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Ожидали ErrValidation, получили: %v", err)
	}
}

func TestVerifyValid(t *testing.T) {
	med := verifiedMedicine(t, testNow.AddDate(1, 0, 0))
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return med, nil
		},
	}
	svc := newTestVerification(repo, okLedger(t))

	result, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint)
	if err != nil {
		t.Fatalf("VerifyFingerprint() ошибка: %v", err)
	}

	if !result.IsValid || !result.IsDistributed {
		t.Errorf("IsValid=%v, IsDistributed=%v; хотели true/true", result.IsValid, result.IsDistributed)
	}
	if result.Message != msgVerified {
		t.Errorf("Message = %q, хотели %q", result.Message, msgVerified)
	}
	if result.LedgerCheck == nil || !result.LedgerCheck.IsValid {
		t.Errorf("LedgerCheck = %+v, хотели валидную запись", result.LedgerCheck)
	}
	if result.Medicine == nil || result.Medicine.ProductName != "Amoxicillin 250mg" {
		t.Errorf("Medicine = %+v", result.Medicine)
	}
	if result.BatchID != "PM-777" {
		t.Errorf("BatchID = %q, хотели PM-777", result.BatchID)
	}
}

func TestVerifyCachesLookup(t *testing.T) {
	med := verifiedMedicine(t, testNow.AddDate(1, 0, 0))
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return med, nil
		},
	}
	svc := newTestVerification(repo, okLedger(t))

	for i := 0; i < 3; i++ {
		if _, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint); err != nil {
			t.Fatalf("Проверка %d: %v", i, err)
		}
	}
	if repo.calls != 1 {
		t.Errorf("Обращений к хранилищу: %d, хотели 1 (повторы из кэша)", repo.calls)
	}
}

func TestVerifyLedgerUnavailable(t *testing.T) {
	med := verifiedMedicine(t, testNow.AddDate(1, 0, 0))
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return med, nil
		},
	}
	lg := &mockLedger{
		verify: func(context.Context, string) (*ledger.Record, error) {
			return nil, fmt.Errorf("%w: connection refused", ledger.ErrUnavailable)
		},
	}
	svc := newTestVerification(repo, lg)

	result, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint)
	if err != nil {
		t.Fatalf("Недоступность реестра не должна быть ошибкой: %v", err)
	}

	if !result.IsValid {
		t.Error("IsValid = false при недоступном реестре")
	}
	if result.LedgerCheck != nil {
		t.Errorf("LedgerCheck = %+v, хотели nil", result.LedgerCheck)
	}
	if !strings.HasSuffix(result.Message, msgLedgerUnavailable) {
		t.Errorf("Message = %q, хотели пометку о недоступности реестра", result.Message)
	}
}

func TestVerifyLedgerCallError(t *testing.T) {
	// Любая ошибка клиента реестра (не только ErrUnavailable —
	// например, испорченный ответ узла) не должна блокировать вердикт
	// по известному локально препарату.
	med := verifiedMedicine(t, testNow.AddDate(1, 0, 0))
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return med, nil
		},
	}
	lg := &mockLedger{
		verify: func(context.Context, string) (*ledger.Record, error) {
			return nil, errors.New("распаковка ответа verifyMedicine: abi: cannot unmarshal")
		},
	}
	svc := newTestVerification(repo, lg)

	result, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint)
	if err != nil {
		t.Fatalf("Сбой клиента реестра не должен быть ошибкой проверки: %v", err)
	}

	if !result.IsValid {
		t.Error("IsValid = false при сбое клиента реестра")
	}
	if result.LedgerCheck != nil {
		t.Errorf("LedgerCheck = %+v, хотели nil", result.LedgerCheck)
	}
	if !strings.HasSuffix(result.Message, msgLedgerUnavailable) {
		t.Errorf("Message = %q, хотели пометку о недоступности реестра", result.Message)
	}
}

func TestVerifyLedgerUnconfirmed(t *testing.T) {
	// Реестр не знает отпечаток (регистрация в реестр — best-effort):
	// вердикт остаётся положительным, но с пометкой в сообщении.
	med := verifiedMedicine(t, testNow.AddDate(1, 0, 0))
	repo := &mockMedicineRepo{
		getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
			return med, nil
		},
	}
	lg := &mockLedger{
		verify: func(context.Context, string) (*ledger.Record, error) {
			return &ledger.Record{IsValid: false}, nil
		},
	}
	svc := newTestVerification(repo, lg)

	result, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint)
	if err != nil {
		t.Fatalf("VerifyFingerprint() ошибка: %v", err)
	}

	if !result.IsValid {
		t.Error("IsValid = false при отсутствии подтверждения реестра")
	}
	if result.LedgerCheck == nil || result.LedgerCheck.IsValid {
		t.Errorf("LedgerCheck = %+v, хотели запись с IsValid=false", result.LedgerCheck)
	}
	if !strings.HasSuffix(result.Message, msgLedgerUnavailable) {
		t.Errorf("Message = %q, хотели пометку о недоступности подтверждения", result.Message)
	}
}

func TestVerifyExpiry(t *testing.T) {
	tests := []struct {
		name        string
		expiry      time.Time
		wantExpired bool
		wantDays    int
		wantMessage string
	}{
		{
			name:        "истёк час назад",
			expiry:      testNow.Add(-time.Hour),
			wantExpired: true,
			wantDays:    0,
			wantMessage: msgExpired,
		},
		{
			name:        "истекает ровно сейчас",
			expiry:      testNow,
			wantExpired: true,
			wantDays:    0,
			wantMessage: msgExpired,
		},
		{
			name:        "истекает через 10 дней",
			expiry:      testNow.Add(10 * 24 * time.Hour),
			wantExpired: false,
			wantDays:    10,
			wantMessage: fmt.Sprintf(msgExpiresSoon, 10),
		},
		{
			name:        "истекает через 30 дней",
			expiry:      testNow.Add(30 * 24 * time.Hour),
			wantExpired: false,
			wantDays:    30,
			wantMessage: fmt.Sprintf(msgExpiresSoon, 30),
		},
		{
			name:        "истекает через 31 день",
			expiry:      testNow.Add(31 * 24 * time.Hour),
			wantExpired: false,
			wantDays:    31,
			wantMessage: msgVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			med := verifiedMedicine(t, tt.expiry)
			repo := &mockMedicineRepo{
				getByFingerprint: func(context.Context, string) (*model.Medicine, error) {
					return med, nil
				},
			}
			svc := newTestVerification(repo, okLedger(t))

			result, err := svc.VerifyFingerprint(context.Background(), med.Fingerprint)
			if err != nil {
				t.Fatalf("VerifyFingerprint() ошибка: %v", err)
			}

			if result.IsExpired != tt.wantExpired {
				t.Errorf("IsExpired = %v, хотели %v", result.IsExpired, tt.wantExpired)
			}
			if result.DaysUntilExpiry != tt.wantDays {
				t.Errorf("DaysUntilExpiry = %d, хотели %d", result.DaysUntilExpiry, tt.wantDays)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Message = %q, хотели %q", result.Message, tt.wantMessage)
			}
			// Истёкший препарат остаётся подлинным
			if !result.IsValid {
				t.Error("IsValid = false для подлинного препарата")
			}
		})
	}
}
