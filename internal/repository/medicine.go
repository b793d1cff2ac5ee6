package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// MedicineFilter — параметры фильтрации каталога.
type MedicineFilter struct {
	// Category — точное совпадение категории (nil — без фильтра).
	Category *string
	// Search — подстрока названия или действующего вещества, без учёта регистра.
	Search *string
}

// MedicineRepository — интерфейс CRUD для таблицы medicines.
type MedicineRepository interface {
	// Create создаёт препарат в каталоге.
	Create(ctx context.Context, m *model.Medicine) error
	// GetByID возвращает препарат по UUID.
	GetByID(ctx context.Context, id string) (*model.Medicine, error)
	// GetByBatchID возвращает препарат по коду партии.
	GetByBatchID(ctx context.Context, batchID string) (*model.Medicine, error)
	// GetByFingerprint возвращает препарат по отпечатку подлинности.
	GetByFingerprint(ctx context.Context, fingerprint string) (*model.Medicine, error)
	// List возвращает страницу каталога с фильтрацией.
	List(ctx context.Context, filter MedicineFilter, limit, offset int) ([]*model.Medicine, error)
	// Count возвращает количество препаратов с фильтрацией.
	Count(ctx context.Context, filter MedicineFilter) (int, error)
	// DecrementStock атомарно уменьшает остаток. Возвращает ErrConflict,
	// если остатка недостаточно.
	DecrementStock(ctx context.Context, id string, qty int) error
	// IncrementStock возвращает остаток (отмена заказа).
	IncrementStock(ctx context.Context, id string, qty int) error
	// Delete удаляет препарат из каталога.
	Delete(ctx context.Context, id string) error
}

// medicineRepo — реализация MedicineRepository.
type medicineRepo struct {
	db DBTX
}

// NewMedicineRepository создаёт репозиторий препаратов.
func NewMedicineRepository(db DBTX) MedicineRepository {
	return &medicineRepo{db: db}
}

const medicineColumns = `id, product_name, chemical_name, manufacturer, price, purpose,
		side_effects, category, image_path, available_stock,
		batch_id, expiry_date, fingerprint, qr_code_path, created_at, updated_at`

func (r *medicineRepo) Create(ctx context.Context, m *model.Medicine) error {
	query := `
		INSERT INTO medicines (id, product_name, chemical_name, manufacturer, price, purpose,
			side_effects, category, image_path, available_stock,
			batch_id, expiry_date, fingerprint, qr_code_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.ProductName, m.ChemicalName, m.Manufacturer, m.Price, m.Purpose,
		m.SideEffects, m.Category, m.ImagePath, m.AvailableStock,
		m.BatchID, m.ExpiryDate, m.Fingerprint, m.QRCodePath,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: batch_id или отпечаток уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка создания препарата: %w", err)
	}
	return nil
}

func (r *medicineRepo) GetByID(ctx context.Context, id string) (*model.Medicine, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *medicineRepo) GetByBatchID(ctx context.Context, batchID string) (*model.Medicine, error) {
	return r.getOne(ctx, "batch_id = $1", batchID)
}

func (r *medicineRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*model.Medicine, error) {
	return r.getOne(ctx, "fingerprint = $1", fingerprint)
}

func (r *medicineRepo) getOne(ctx context.Context, cond string, arg any) (*model.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines WHERE %s`, medicineColumns, cond)

	m := &model.Medicine{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.ProductName, &m.ChemicalName, &m.Manufacturer, &m.Price, &m.Purpose,
		&m.SideEffects, &m.Category, &m.ImagePath, &m.AvailableStock,
		&m.BatchID, &m.ExpiryDate, &m.Fingerprint, &m.QRCodePath, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения препарата: %w", err)
	}
	// CHAR(64) дополняется пробелами при нестандартной длине
	m.Fingerprint = strings.TrimSpace(m.Fingerprint)
	return m, nil
}

// buildFilter строит условия WHERE для фильтра каталога.
func buildFilter(filter MedicineFilter) (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, *filter.Category)
		argNum++
	}
	if filter.Search != nil {
		conditions = append(conditions,
			fmt.Sprintf("(product_name ILIKE $%d OR chemical_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+*filter.Search+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *medicineRepo) List(ctx context.Context, filter MedicineFilter, limit, offset int) ([]*model.Medicine, error) {
	where, args := buildFilter(filter)

	query := fmt.Sprintf(`
		SELECT %s
		FROM medicines
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, medicineColumns, where, len(args)+1, len(args)+2)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	defer rows.Close()

	var result []*model.Medicine
	for rows.Next() {
		m := &model.Medicine{}
		if err := rows.Scan(
			&m.ID, &m.ProductName, &m.ChemicalName, &m.Manufacturer, &m.Price, &m.Purpose,
			&m.SideEffects, &m.Category, &m.ImagePath, &m.AvailableStock,
			&m.BatchID, &m.ExpiryDate, &m.Fingerprint, &m.QRCodePath, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования препарата: %w", err)
		}
		m.Fingerprint = strings.TrimSpace(m.Fingerprint)
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *medicineRepo) Count(ctx context.Context, filter MedicineFilter) (int, error) {
	where, args := buildFilter(filter)

	var count int
	err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM medicines %s`, where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта препаратов: %w", err)
	}
	return count, nil
}

func (r *medicineRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	query := `
		UPDATE medicines
		SET available_stock = available_stock - $2, updated_at = now()
		WHERE id = $1 AND available_stock >= $2`

	tag, err := r.db.Exec(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("ошибка списания остатка: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// либо препарата нет, либо остатка недостаточно
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM medicines WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки препарата: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: недостаточный остаток", ErrConflict)
	}
	return nil
}

func (r *medicineRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE medicines SET available_stock = available_stock + $2, updated_at = now() WHERE id = $1`,
		id, qty)
	if err != nil {
		return fmt.Errorf("ошибка возврата остатка: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicineRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления препарата: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
