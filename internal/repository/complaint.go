package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
)

// ComplaintRepository — интерфейс CRUD для таблицы complaints.
type ComplaintRepository interface {
	// Create создаёт жалобу.
	Create(ctx context.Context, c *model.Complaint) error
	// GetByID возвращает жалобу по UUID.
	GetByID(ctx context.Context, id string) (*model.Complaint, error)
	// RefExists проверяет занятость внешнего номера жалобы.
	RefExists(ctx context.Context, ref string) (bool, error)
	// ListByUser возвращает жалобы пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Complaint, error)
	// List возвращает все жалобы с опциональным фильтром по статусу.
	List(ctx context.Context, status *string, limit, offset int) ([]*model.Complaint, error)
	// UpdateStatus меняет статус жалобы и комментарий администратора.
	UpdateStatus(ctx context.Context, id, status, adminRemarks string) error
	// Delete удаляет жалобу.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество жалоб с опциональным фильтром по статусу.
	Count(ctx context.Context, status *string) (int, error)
}

// complaintRepo — реализация ComplaintRepository.
type complaintRepo struct {
	db DBTX
}

// NewComplaintRepository создаёт репозиторий жалоб.
func NewComplaintRepository(db DBTX) ComplaintRepository {
	return &complaintRepo{db: db}
}

const complaintColumns = `id, complaint_ref, user_id, medicine_name, medicine_dose,
		manufacturer, batch_id, manufacture_date, expiry_date, store, city,
		qr_code_path, description, status, admin_remarks, created_at, updated_at`

func (r *complaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	query := `
		INSERT INTO complaints (id, complaint_ref, user_id, medicine_name, medicine_dose,
			manufacturer, batch_id, manufacture_date, expiry_date, store, city,
			qr_code_path, description, status, admin_remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.ComplaintRef, c.UserID, c.MedicineName, c.MedicineDose,
		c.Manufacturer, c.BatchID, c.ManufactureDate, c.ExpiryDate, c.Store, c.City,
		c.QRCodePath, c.Description, c.Status, c.AdminRemarks,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: номер жалобы уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания жалобы: %w", err)
	}
	return nil
}

func scanComplaint(row pgx.Row) (*model.Complaint, error) {
	c := &model.Complaint{}
	err := row.Scan(
		&c.ID, &c.ComplaintRef, &c.UserID, &c.MedicineName, &c.MedicineDose,
		&c.Manufacturer, &c.BatchID, &c.ManufactureDate, &c.ExpiryDate, &c.Store, &c.City,
		&c.QRCodePath, &c.Description, &c.Status, &c.AdminRemarks,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *complaintRepo) GetByID(ctx context.Context, id string) (*model.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1`, complaintColumns)

	c, err := scanComplaint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения жалобы: %w", err)
	}
	return c, nil
}

func (r *complaintRepo) RefExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM complaints WHERE complaint_ref = $1)`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки номера жалобы: %w", err)
	}
	return exists, nil
}

func (r *complaintRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Complaint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM complaints
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, complaintColumns)

	return r.listQuery(ctx, query, userID, limit, offset)
}

func (r *complaintRepo) List(ctx context.Context, status *string, limit, offset int) ([]*model.Complaint, error) {
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
		SELECT %s FROM complaints
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, complaintColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)
	return r.listQuery(ctx, query, args...)
}

func (r *complaintRepo) listQuery(ctx context.Context, query string, args ...any) ([]*model.Complaint, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка жалоб: %w", err)
	}
	defer rows.Close()

	var result []*model.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования жалобы: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *complaintRepo) UpdateStatus(ctx context.Context, id, status, adminRemarks string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE complaints
		SET status = $2, admin_remarks = $3, updated_at = now()
		WHERE id = $1`, id, status, adminRemarks)
	if err != nil {
		return fmt.Errorf("ошибка обновления жалобы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *complaintRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления жалобы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *complaintRepo) Count(ctx context.Context, status *string) (int, error) {
	query := `SELECT COUNT(*) FROM complaints`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта жалоб: %w", err)
	}
	return count, nil
}
