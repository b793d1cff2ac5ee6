package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// OrderRepository — интерфейс CRUD для таблиц orders и order_items.
type OrderRepository interface {
	// Create создаёт заказ вместе с позициями.
	Create(ctx context.Context, o *model.Order) error
	// GetByID возвращает заказ с позициями по UUID.
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error)
	// List возвращает все заказы с опциональным фильтром по статусу.
	List(ctx context.Context, status *string, limit, offset int) ([]*model.Order, error)
	// UpdateStatus меняет статус заказа.
	UpdateStatus(ctx context.Context, id, status string) error
	// Delete удаляет заказ (позиции каскадно).
	Delete(ctx context.Context, id string) error
	// Count возвращает количество заказов с опциональным фильтром по статусу.
	Count(ctx context.Context, status *string) (int, error)
}

// orderRepo — реализация OrderRepository.
type orderRepo struct {
	db DBTX
}

// NewOrderRepository создаёт репозиторий заказов.
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	query := `
		INSERT INTO orders (id, order_ref, user_id,
			first_name, last_name, email, phone, address, city, state, zip, country,
			subtotal, shipping, total_amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		o.ID, o.OrderRef, o.UserID,
		o.Customer.FirstName, o.Customer.LastName, o.Customer.Email, o.Customer.Phone,
		o.Customer.Address, o.Customer.City, o.Customer.State, o.Customer.Zip, o.Customer.Country,
		o.Subtotal, o.Shipping, o.TotalAmount, o.PaymentMethod, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: номер заказа уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		_, err := r.db.Exec(ctx, `
			INSERT INTO order_items (id, order_id, medicine_id, product_name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), o.ID, it.MedicineID, it.ProductName, it.Price, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("ошибка создания позиции заказа: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, order_ref, user_id,
		first_name, last_name, email, phone, address, city, state, zip, country,
		subtotal, shipping, total_amount, payment_method, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderRef, &o.UserID,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
		&o.Customer.Address, &o.Customer.City, &o.Customer.State, &o.Customer.Zip, &o.Customer.Country,
		&o.Subtotal, &o.Shipping, &o.TotalAmount, &o.PaymentMethod, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) loadItems(ctx context.Context, o *model.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT medicine_id, product_name, price, quantity
		FROM order_items
		WHERE order_id = $1`, o.ID)
	if err != nil {
		return fmt.Errorf("ошибка получения позиций заказа: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.MedicineID, &it.ProductName, &it.Price, &it.Quantity); err != nil {
			return fmt.Errorf("ошибка сканирования позиции заказа: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orderColumns)

	return r.list(ctx, query, userID, limit, offset)
}

func (r *orderRepo) List(ctx context.Context, status *string, limit, offset int) ([]*model.Order, error) {
	var conditions []string
	var args []any
	argNum := 1

	if status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *status)
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, orderColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

func (r *orderRepo) list(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}
	defer rows.Close()

	var result []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range result {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления заказа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) Count(ctx context.Context, status *string) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}
	return count, nil
}
