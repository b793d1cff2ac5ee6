// verification.go — проверка подлинности препарата по QR-коду или отпечатку.
//
// Последовательность решения:
//  1. Декодирование QR-изображения (только для VerifyImage).
//  2. Поиск отпечатка в локальном каталоге (кэш → PostgreSQL).
//     Неизвестный отпечаток — это вердикт, а не ошибка.
//  3. Сверка с реестром (best-effort: недоступность реестра
//     не блокирует вердикт, а помечается в сообщении).
//  4. Проверка срока годности и синтез итогового сообщения.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/fingerprint"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/qr"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// Порог предупреждения о близком сроке годности.
const expiryWarningDays = 30

// Сообщения вердикта — предназначены для отображения покупателю.
const (
	msgNotDistributed    = "This medicine is not distributed by PureMeds. It may be counterfeit."
	msgVerified          = "Medicine verified successfully!"
	msgExpired           = "Medicine verified but has expired. Do not use this medicine."
	msgExpiresSoon       = "Medicine verified. Warning: Expires in %d days."
	msgLedgerUnavailable = " Note: Blockchain verification unavailable."
)

// Prometheus-метрика исходов проверки.
var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pm_verifications_total",
	Help: "Количество проверок подлинности по исходам.",
}, []string{"outcome"})

// VerificationService — проверка подлинности препаратов.
type VerificationService struct {
	medicines repository.MedicineRepository
	cache     *MedicineCache
	ledger    ledger.Client
	logger    *slog.Logger

	// now подменяется в тестах для детерминированной проверки срока годности.
	now func() time.Time
}

// NewVerificationService создаёт сервис проверки подлинности.
func NewVerificationService(
	medicines repository.MedicineRepository,
	cache *MedicineCache,
	ledgerClient ledger.Client,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		medicines: medicines,
		cache:     cache,
		ledger:    ledgerClient,
		logger:    logger.With(slog.String("component", "verification")),
		now:       time.Now,
	}
}

// VerifyImage декодирует QR-изображение и проверяет подлинность.
// Ошибки декодирования (qr.ErrUnreadableImage и родственные)
// возвращаются без обёртки — обработчик переводит их в HTTP 400.
func (s *VerificationService) VerifyImage(ctx context.Context, imageBytes []byte) (*model.VerificationResult, error) {
	payload, err := qr.Decode(imageBytes)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, payload.Hash, payload.BatchID)
}

// VerifyFingerprint проверяет подлинность по готовому отпечатку.
func (s *VerificationService) VerifyFingerprint(ctx context.Context, fp string) (*model.VerificationResult, error) {
	return s.verify(ctx, fp, "")
}

func (s *VerificationService) verify(ctx context.Context, fp, batchID string) (*model.VerificationResult, error) {
	if _, err := fingerprint.ToBytes32(fp); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, "hash must be 64 hex characters")
	}

	result := &model.VerificationResult{
		Fingerprint: fp,
		BatchID:     batchID,
		VerifiedAt:  s.now().UTC(),
	}

	// Локальный каталог: кэш → PostgreSQL
	med, ok := s.cache.Get(fp)
	if !ok {
		var err error
		med, err = s.medicines.GetByFingerprint(ctx, fp)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Неизвестный отпечаток — вердикт "не распространяется платформой"
				result.Message = msgNotDistributed
				verificationsTotal.WithLabelValues("unknown").Inc()
				return result, nil
			}
			return nil, err
		}
		s.cache.Set(fp, med)
	}

	result.IsDistributed = true
	result.Medicine = med.Summary()
	if result.BatchID == "" {
		result.BatchID = med.BatchID
	}

	// Сверка с реестром — best-effort: любая ошибка Verify (недоступный
	// узел, испорченный ответ) вердикт не блокирует. Подтверждением
	// считается только запись с isValid=true; отсутствие записи вердикт
	// не меняет (регистрация в реестре тоже best-effort).
	ledgerConfirmed := false
	rec, err := s.ledger.Verify(ctx, fp)
	if err != nil {
		s.logger.Warn("Сверка с реестром не выполнена, вердикт выносится по локальному каталогу",
			slog.String("batch_id", result.BatchID),
			slog.String("error", err.Error()),
		)
	} else {
		result.LedgerCheck = rec
		ledgerConfirmed = rec.IsValid
	}

	// Срок годности
	now := s.now()
	if !med.ExpiryDate.After(now) {
		result.IsExpired = true
	} else {
		hours := med.ExpiryDate.Sub(now).Hours()
		result.DaysUntilExpiry = int(math.Ceil(hours / 24))
	}

	// Итоговый вердикт и сообщение
	result.IsValid = true
	switch {
	case result.IsExpired:
		result.Message = msgExpired
		verificationsTotal.WithLabelValues("expired").Inc()
	case result.DaysUntilExpiry <= expiryWarningDays:
		result.Message = fmt.Sprintf(msgExpiresSoon, result.DaysUntilExpiry)
		verificationsTotal.WithLabelValues("valid").Inc()
	default:
		result.Message = msgVerified
		verificationsTotal.WithLabelValues("valid").Inc()
	}

	if !ledgerConfirmed {
		result.Message += msgLedgerUnavailable
	}

	return result, nil
}
