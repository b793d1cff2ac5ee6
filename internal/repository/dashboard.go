package repository

import (
	"context"
	"fmt"
	"time"
)

// Порог низкого остатка на складе.
const lowStockThreshold = 50

// DashboardStats — агрегированные показатели платформы для панели администратора.
type DashboardStats struct {
	TotalMedicines    int     `json:"totalMedicines"`
	TotalOrders       int     `json:"totalOrders"`
	TodayOrders       int     `json:"todayOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PendingComplaints int     `json:"pendingComplaints"`
	// LowStockCount — препараты с остатком ниже порога (но ещё в наличии).
	LowStockCount int `json:"lowStockCount"`
	// OutOfStockCount — препараты с нулевым остатком.
	OutOfStockCount int `json:"outOfStockCount"`
	// ExpiredCount — партии с истёкшим сроком годности.
	ExpiredCount int `json:"expiredCount"`
	// InventoryValue — суммарная стоимость остатков каталога.
	InventoryValue float64 `json:"inventoryValue"`
	// OrdersByStatus — распределение заказов по статусам.
	OrdersByStatus map[string]int `json:"ordersByStatus"`
	// CategoryDistribution — распределение каталога по категориям.
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	// ExpiringBatches — партии со сроком годности ближе порога.
	ExpiringBatches []ExpiringBatch `json:"expiringBatches"`
}

// ExpiringBatch — партия с приближающимся сроком годности.
type ExpiringBatch struct {
	BatchID     string    `json:"batchId"`
	ProductName string    `json:"productName"`
	ExpiryDate  time.Time `json:"expiryDate"`
	Stock       int       `json:"stock"`
}

// DashboardRepository — агрегирующие запросы панели администратора.
type DashboardRepository interface {
	// Stats собирает сводку по каталогу, заказам и жалобам.
	// horizon — порог близости срока годности партий.
	Stats(ctx context.Context, horizon time.Duration) (*DashboardStats, error)
}

// dashboardRepo — реализация DashboardRepository.
type dashboardRepo struct {
	db DBTX
}

// NewDashboardRepository создаёт репозиторий панели администратора.
func NewDashboardRepository(db DBTX) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) Stats(ctx context.Context, horizon time.Duration) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus:       map[string]int{},
		CategoryDistribution: map[string]int{},
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM medicines),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM orders WHERE created_at >= date_trunc('day', now())),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> 'cancelled'),
			(SELECT COUNT(*) FROM complaints WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM medicines WHERE available_stock > 0 AND available_stock < $1),
			(SELECT COUNT(*) FROM medicines WHERE available_stock = 0),
			(SELECT COUNT(*) FROM medicines WHERE expiry_date <= now()),
			(SELECT COALESCE(SUM(price * available_stock), 0) FROM medicines)`

	err := r.db.QueryRow(ctx, query, lowStockThreshold).Scan(
		&stats.TotalMedicines, &stats.TotalOrders, &stats.TodayOrders,
		&stats.TotalRevenue, &stats.PendingComplaints,
		&stats.LowStockCount, &stats.OutOfStockCount, &stats.ExpiredCount,
		&stats.InventoryValue,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сводки: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения распределения заказов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования распределения: %w", err)
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM medicines GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения распределения категорий: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var category string
		var count int
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		stats.CategoryDistribution[category] = count
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(horizon)
	batchRows, err := r.db.Query(ctx, `
		SELECT batch_id, product_name, expiry_date, available_stock
		FROM medicines
		WHERE expiry_date <= $1
		ORDER BY expiry_date`, deadline)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истекающих партий: %w", err)
	}
	defer batchRows.Close()

	for batchRows.Next() {
		var b ExpiringBatch
		if err := batchRows.Scan(&b.BatchID, &b.ProductName, &b.ExpiryDate, &b.Stock); err != nil {
			return nil, fmt.Errorf("ошибка сканирования партии: %w", err)
		}
		stats.ExpiringBatches = append(stats.ExpiringBatches, b)
	}
	return stats, batchRows.Err()
}
