// supplychain.go — прослеживаемость партий.
package service

import (
	"context"
	"log/slog"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// SupplyChainService — просмотр цепочек поставок. Записи создаются
// при регистрации партии (MedicineService) и удаляются каскадно.
type SupplyChainService struct {
	supplyChains repository.SupplyChainRepository
	logger       *slog.Logger
}

// NewSupplyChainService создаёт сервис цепочек поставок.
func NewSupplyChainService(supplyChains repository.SupplyChainRepository, logger *slog.Logger) *SupplyChainService {
	return &SupplyChainService{
		supplyChains: supplyChains,
		logger:       logger.With(slog.String("component", "supplychain")),
	}
}

// GetByBatchID возвращает цепочку поставок партии.
func (s *SupplyChainService) GetByBatchID(ctx context.Context, batchID string) (*model.SupplyChain, error) {
	return s.supplyChains.GetByBatchID(ctx, batchID)
}

// List возвращает все цепочки поставок.
func (s *SupplyChainService) List(ctx context.Context, limit, offset int) ([]*model.SupplyChain, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.supplyChains.List(ctx, limit, offset)
}
