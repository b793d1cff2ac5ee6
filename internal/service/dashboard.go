// dashboard.go — сводка панели администратора и выгрузка CSV.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// Горизонт предупреждения об истекающих партиях в сводке.
const expiringHorizon = 30 * 24 * time.Hour

// DashboardService — агрегированные показатели платформы.
type DashboardService struct {
	dashboard repository.DashboardRepository
	orders    repository.OrderRepository
	medicines repository.MedicineRepository
	logger    *slog.Logger
}

// NewDashboardService создаёт сервис панели администратора.
func NewDashboardService(
	dashboard repository.DashboardRepository,
	orders repository.OrderRepository,
	medicines repository.MedicineRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		dashboard: dashboard,
		orders:    orders,
		medicines: medicines,
		logger:    logger.With(slog.String("component", "dashboard")),
	}
}

// Stats возвращает сводку по каталогу, заказам и жалобам.
func (s *DashboardService) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.dashboard.Stats(ctx, expiringHorizon)
}

// ExportOrdersCSV выгружает заказы в CSV.
func (s *DashboardService) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	const pageSize = 500

	cw := csv.NewWriter(w)
	header := []string{"orderId", "userId", "status", "paymentMethod",
		"subtotal", "shipping", "totalAmount", "city", "createdAt"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ошибка записи CSV: %w", err)
	}

	for offset := 0; ; offset += pageSize {
		orders, err := s.orders.List(ctx, nil, pageSize, offset)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			break
		}
		for _, o := range orders {
			row := []string{
				o.OrderRef, o.UserID, o.Status, o.PaymentMethod,
				strconv.FormatFloat(o.Subtotal, 'f', 2, 64),
				strconv.FormatFloat(o.Shipping, 'f', 2, 64),
				strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
				o.Customer.City,
				o.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("ошибка записи CSV: %w", err)
			}
		}
		if len(orders) < pageSize {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportMedicinesCSV выгружает каталог в CSV.
func (s *DashboardService) ExportMedicinesCSV(ctx context.Context, w io.Writer) error {
	const pageSize = 500

	cw := csv.NewWriter(w)
	header := []string{"batchId", "productName", "chemicalName", "manufacturer",
		"category", "price", "availableStock", "expiryDate", "createdAt"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ошибка записи CSV: %w", err)
	}

	for offset := 0; ; offset += pageSize {
		meds, err := s.medicines.List(ctx, repository.MedicineFilter{}, pageSize, offset)
		if err != nil {
			return err
		}
		if len(meds) == 0 {
			break
		}
		for _, m := range meds {
			row := []string{
				m.BatchID, m.ProductName, m.ChemicalName, m.Manufacturer,
				m.Category,
				strconv.FormatFloat(m.Price, 'f', 2, 64),
				strconv.Itoa(m.AvailableStock),
				m.ExpiryDate.UTC().Format(time.RFC3339),
				m.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("ошибка записи CSV: %w", err)
			}
		}
		if len(meds) < pageSize {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}
