// medicines.go — каталог препаратов и регистрация партий.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/fingerprint"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/qr"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// RegisterMedicineInput — данные регистрации новой партии препарата.
type RegisterMedicineInput struct {
	ProductName    string   `json:"productName"`
	ChemicalName   string   `json:"chemicalName"`
	Manufacturer   string   `json:"manufacturer"`
	Price          float64  `json:"price"`
	Purpose        string   `json:"purpose"`
	SideEffects    []string `json:"sideEffects"`
	Category       string   `json:"category"`
	ImagePath      string   `json:"productImage"`
	AvailableStock int      `json:"availableStock"`
	BatchID        string   `json:"batchId"`
	// ExpiryDate — срок годности в ISO 8601 или формате YYYY-MM-DD.
	ExpiryDate string `json:"expiryDate"`
}

// MedicineService — каталог препаратов.
// Регистрация партии: отпечаток → QR-артефакт → запись в реестр
// (best-effort) → транзакционная вставка препарата и цепочки поставок.
type MedicineService struct {
	medicines    repository.MedicineRepository
	supplyChains repository.SupplyChainRepository
	txRunner     *repository.TxRunner
	cache        *MedicineCache
	ledger       ledger.Client
	artifactDir  string
	logger       *slog.Logger
}

// NewMedicineService создаёт сервис каталога.
func NewMedicineService(
	medicines repository.MedicineRepository,
	supplyChains repository.SupplyChainRepository,
	txRunner *repository.TxRunner,
	cache *MedicineCache,
	ledgerClient ledger.Client,
	artifactDir string,
	logger *slog.Logger,
) *MedicineService {
	return &MedicineService{
		medicines:    medicines,
		supplyChains: supplyChains,
		txRunner:     txRunner,
		cache:        cache,
		ledger:       ledgerClient,
		artifactDir:  artifactDir,
		logger:       logger.With(slog.String("component", "medicines")),
	}
}

// Register регистрирует новую партию препарата.
// Отпечаток выводится из неизменяемых полей партии; QR-артефакт
// сохраняется на диск; запись в реестр — best-effort (недоступность
// реестра не блокирует регистрацию, дубликат в реестре — блокирует).
func (s *MedicineService) Register(ctx context.Context, in *RegisterMedicineInput) (*model.Medicine, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	expiry, err := fingerprint.ParseExpiry(in.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: expiryDate: %s", ErrValidation, err)
	}

	fp, err := fingerprint.Derive(in.BatchID, in.Manufacturer, expiry, in.ProductName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	// QR-артефакт партии
	png, err := qr.Encode(fp, in.BatchID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}
	qrPath, err := s.writeArtifact(in.BatchID, png)
	if err != nil {
		return nil, err
	}

	// Запись отпечатка в реестр — best-effort
	receipt, err := s.ledger.Register(ctx, fp, in.BatchID)
	switch {
	case err == nil:
		s.logger.Info("Партия зарегистрирована в реестре",
			slog.String("batch_id", in.BatchID),
			slog.String("tx_hash", receipt.TxHash),
		)
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return nil, fmt.Errorf("%w: партия уже зарегистрирована в реестре", repository.ErrConflict)
	case errors.Is(err, ledger.ErrUnavailable):
		s.logger.Warn("Реестр недоступен, партия зарегистрирована только локально",
			slog.String("batch_id", in.BatchID),
			slog.String("error", err.Error()),
		)
	default:
		return nil, err
	}

	med := &model.Medicine{
		ID:             uuid.NewString(),
		ProductName:    in.ProductName,
		ChemicalName:   in.ChemicalName,
		Manufacturer:   in.Manufacturer,
		Price:          in.Price,
		Purpose:        in.Purpose,
		SideEffects:    in.SideEffects,
		Category:       in.Category,
		ImagePath:      in.ImagePath,
		AvailableStock: in.AvailableStock,
		BatchID:        in.BatchID,
		ExpiryDate:     expiry,
		Fingerprint:    fp,
		QRCodePath:     qrPath,
	}

	// Препарат и цепочка поставок создаются в одной транзакции
	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := repository.NewMedicineRepository(tx).Create(ctx, med); err != nil {
			return err
		}
		sc := &model.SupplyChain{
			BatchID:          med.BatchID,
			ManufacturerName: med.Manufacturer,
			ExpiryDate:       med.ExpiryDate,
			StockRemaining:   med.AvailableStock,
			Stages:           model.DefaultSupplyStages(med.Manufacturer),
		}
		return repository.NewSupplyChainRepository(tx).Create(ctx, sc)
	})
	if err != nil {
		// Запись не создана — артефакт больше не нужен
		if rmErr := os.Remove(qrPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("Не удалось удалить QR-артефакт",
				slog.String("path", qrPath),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("Препарат зарегистрирован",
		slog.String("id", med.ID),
		slog.String("batch_id", med.BatchID),
		slog.String("fingerprint", med.Fingerprint),
	)
	return med, nil
}

// writeArtifact сохраняет PNG QR-кода в каталог артефактов.
func (s *MedicineService) writeArtifact(batchID string, png []byte) (string, error) {
	if err := os.MkdirAll(s.artifactDir, 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания каталога артефактов: %w", err)
	}
	path := filepath.Join(s.artifactDir, batchID+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("ошибка записи QR-артефакта: %w", err)
	}
	return path, nil
}

func validateRegisterInput(in *RegisterMedicineInput) error {
	switch {
	case strings.TrimSpace(in.ProductName) == "":
		return fmt.Errorf("%w: productName обязателен", ErrValidation)
	case strings.TrimSpace(in.Manufacturer) == "":
		return fmt.Errorf("%w: manufacturer обязателен", ErrValidation)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: category обязательна", ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price не может быть отрицательной", ErrValidation)
	case in.AvailableStock < 0:
		return fmt.Errorf("%w: availableStock не может быть отрицательным", ErrValidation)
	case !fingerprint.ValidBatchCode(in.BatchID):
		return fmt.Errorf("%w: batchId должен иметь формат PM-<цифры>", ErrValidation)
	case strings.TrimSpace(in.ExpiryDate) == "":
		return fmt.Errorf("%w: expiryDate обязателен", ErrValidation)
	}
	return nil
}

// List возвращает страницу каталога с фильтрацией.
func (s *MedicineService) List(ctx context.Context, filter repository.MedicineFilter, limit, offset int) ([]*model.Medicine, int, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.medicines.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.medicines.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Featured возвращает три последних добавленных препарата (витрина).
func (s *MedicineService) Featured(ctx context.Context) ([]*model.Medicine, error) {
	return s.medicines.List(ctx, repository.MedicineFilter{}, 3, 0)
}

// GetByID возвращает препарат по UUID.
func (s *MedicineService) GetByID(ctx context.Context, id string) (*model.Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

// GetByBatchID возвращает препарат по коду партии.
func (s *MedicineService) GetByBatchID(ctx context.Context, batchID string) (*model.Medicine, error) {
	return s.medicines.GetByBatchID(ctx, batchID)
}

// Delete удаляет препарат из каталога, инвалидирует кэш
// и удаляет QR-артефакт. Цепочка поставок удаляется каскадно.
func (s *MedicineService) Delete(ctx context.Context, id string) error {
	med, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.medicines.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(med.Fingerprint)

	if med.QRCodePath != "" {
		if err := os.Remove(med.QRCodePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Не удалось удалить QR-артефакт",
				slog.String("path", med.QRCodePath),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("Препарат удалён",
		slog.String("id", id),
		slog.String("batch_id", med.BatchID),
	)
	return nil
}
