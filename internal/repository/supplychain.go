package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// SupplyChainRepository — интерфейс CRUD для таблицы supply_chains.
type SupplyChainRepository interface {
	// Create создаёт запись цепочки поставок партии.
	Create(ctx context.Context, sc *model.SupplyChain) error
	// GetByBatchID возвращает цепочку поставок по коду партии.
	GetByBatchID(ctx context.Context, batchID string) (*model.SupplyChain, error)
	// List возвращает все цепочки поставок, новые первыми.
	List(ctx context.Context, limit, offset int) ([]*model.SupplyChain, error)
	// UpdateStock обновляет остаток партии.
	UpdateStock(ctx context.Context, batchID string, stockRemaining int) error
}

// supplyChainRepo — реализация SupplyChainRepository.
type supplyChainRepo struct {
	db DBTX
}

// NewSupplyChainRepository создаёт репозиторий цепочек поставок.
func NewSupplyChainRepository(db DBTX) SupplyChainRepository {
	return &supplyChainRepo{db: db}
}

func (r *supplyChainRepo) Create(ctx context.Context, sc *model.SupplyChain) error {
	stages, err := json.Marshal(sc.Stages)
	if err != nil {
		return fmt.Errorf("ошибка сериализации этапов: %w", err)
	}

	query := `
		INSERT INTO supply_chains (batch_id, manufacturer_name, expiry_date, stock_remaining, stages)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		sc.BatchID, sc.ManufacturerName, sc.ExpiryDate, sc.StockRemaining, stages,
	).Scan(&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: цепочка поставок партии уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания цепочки поставок: %w", err)
	}
	return nil
}

func scanSupplyChain(row pgx.Row) (*model.SupplyChain, error) {
	sc := &model.SupplyChain{}
	var stages []byte
	err := row.Scan(
		&sc.BatchID, &sc.ManufacturerName, &sc.ExpiryDate, &sc.StockRemaining,
		&stages, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stages, &sc.Stages); err != nil {
		return nil, fmt.Errorf("ошибка десериализации этапов: %w", err)
	}
	return sc, nil
}

func (r *supplyChainRepo) GetByBatchID(ctx context.Context, batchID string) (*model.SupplyChain, error) {
	query := `
		SELECT batch_id, manufacturer_name, expiry_date, stock_remaining, stages, created_at, updated_at
		FROM supply_chains
		WHERE batch_id = $1`

	sc, err := scanSupplyChain(r.db.QueryRow(ctx, query, batchID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения цепочки поставок: %w", err)
	}
	return sc, nil
}

func (r *supplyChainRepo) List(ctx context.Context, limit, offset int) ([]*model.SupplyChain, error) {
	query := `
		SELECT batch_id, manufacturer_name, expiry_date, stock_remaining, stages, created_at, updated_at
		FROM supply_chains
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка цепочек поставок: %w", err)
	}
	defer rows.Close()

	var result []*model.SupplyChain
	for rows.Next() {
		sc, err := scanSupplyChain(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования цепочки поставок: %w", err)
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *supplyChainRepo) UpdateStock(ctx context.Context, batchID string, stockRemaining int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE supply_chains
		SET stock_remaining = $2, updated_at = now()
		WHERE batch_id = $1`, batchID, stockRemaining)
	if err != nil {
		return fmt.Errorf("ошибка обновления остатка партии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
