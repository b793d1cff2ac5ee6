package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// PaymentRepository — интерфейс CRUD для таблицы payments.
type PaymentRepository interface {
	// Create создаёт запись об оплате. Один платёж на заказ.
	Create(ctx context.Context, p *model.Payment) error
	// GetByOrderID возвращает платёж заказа.
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	// GetByStripeSession возвращает платёж по ID checkout-сессии Stripe.
	GetByStripeSession(ctx context.Context, sessionID string) (*model.Payment, error)
	// UpdateStatus меняет статус платежа и внешние идентификаторы.
	UpdateStatus(ctx context.Context, id, status, paymentIntentID, transactionID string) error
	// ListByUser возвращает платежи пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error)
}

// paymentRepo — реализация PaymentRepository.
type paymentRepo struct {
	db DBTX
}

// NewPaymentRepository создаёт репозиторий платежей.
func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, order_id, user_id, payment_method, amount, status,
		stripe_session_id, stripe_payment_intent_id, transaction_id, created_at, updated_at`

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, user_id, payment_method, amount, status,
			stripe_session_id, stripe_payment_intent_id, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.OrderID, p.UserID, p.PaymentMethod, p.Amount, p.Status,
		p.StripeSessionID, p.StripePaymentIntentID, p.TransactionID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: платёж по заказу уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания платежа: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.PaymentMethod, &p.Amount, &p.Status,
		&p.StripeSessionID, &p.StripePaymentIntentID, &p.TransactionID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *paymentRepo) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE order_id = $1`, paymentColumns)

	p, err := scanPayment(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения платежа: %w", err)
	}
	return p, nil
}

func (r *paymentRepo) GetByStripeSession(ctx context.Context, sessionID string) (*model.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE stripe_session_id = $1`, paymentColumns)

	p, err := scanPayment(r.db.QueryRow(ctx, query, sessionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения платежа: %w", err)
	}
	return p, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id, status, paymentIntentID, transactionID string) error {
	query := `
		UPDATE payments
		SET status = $2,
			stripe_payment_intent_id = COALESCE(NULLIF($3, ''), stripe_payment_intent_id),
			transaction_id = COALESCE(NULLIF($4, ''), transaction_id),
			updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, paymentIntentID, transactionID)
	if err != nil {
		return fmt.Errorf("ошибка обновления платежа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, paymentColumns)

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка платежей: %w", err)
	}
	defer rows.Close()

	var result []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования платежа: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
