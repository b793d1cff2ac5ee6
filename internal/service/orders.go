// orders.go — оформление и сопровождение заказов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// Фиксированная стоимость доставки.
const shippingFlatFee = 200.0

// CreateOrderInput — данные оформления заказа.
type CreateOrderInput struct {
	Customer      model.CustomerInfo `json:"customerInfo"`
	Items         []OrderItemInput   `json:"products"`
	PaymentMethod string             `json:"paymentMethod"`
}

// OrderItemInput — позиция оформляемого заказа.
type OrderItemInput struct {
	MedicineID string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

// OrderService — заказы покупателей. Создание заказа атомарно
// списывает остатки: либо резервируются все позиции, либо ни одной.
type OrderService struct {
	orders       repository.OrderRepository
	supplyChains repository.SupplyChainRepository
	txRunner     *repository.TxRunner
	logger       *slog.Logger
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(
	orders repository.OrderRepository,
	supplyChains repository.SupplyChainRepository,
	txRunner *repository.TxRunner,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:       orders,
		supplyChains: supplyChains,
		txRunner:     txRunner,
		logger:       logger.With(slog.String("component", "orders")),
	}
}

// newOrderRef генерирует внешний номер заказа.
func newOrderRef() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().Unix(), rand.Intn(10000))
}

// Create оформляет заказ пользователя. Цены и названия позиций
// фиксируются из каталога на момент оформления, остатки списываются
// в той же транзакции, что и вставка заказа.
func (s *OrderService) Create(ctx context.Context, userID string, in *CreateOrderInput) (*model.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		OrderRef:      newOrderRef(),
		UserID:        userID,
		Customer:      in.Customer,
		PaymentMethod: in.PaymentMethod,
		Status:        model.OrderStatusPending,
		Shipping:      shippingFlatFee,
	}

	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		medRepo := repository.NewMedicineRepository(tx)
		scRepo := repository.NewSupplyChainRepository(tx)

		for _, item := range in.Items {
			med, err := medRepo.GetByID(ctx, item.MedicineID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: препарат %s не найден", ErrValidation, item.MedicineID)
				}
				return err
			}

			if err := medRepo.DecrementStock(ctx, med.ID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, med.ProductName)
				}
				return err
			}

			// Остаток партии в цепочке поставок следует за каталогом
			if err := scRepo.UpdateStock(ctx, med.BatchID, med.AvailableStock-item.Quantity); err != nil &&
				!errors.Is(err, repository.ErrNotFound) {
				return err
			}

			order.Items = append(order.Items, model.OrderItem{
				MedicineID:  med.ID,
				ProductName: med.ProductName,
				Quantity:    item.Quantity,
				Price:       med.Price,
			})
			order.Subtotal += med.Price * float64(item.Quantity)
		}

		order.TotalAmount = order.Subtotal + order.Shipping
		return repository.NewOrderRepository(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Заказ оформлен",
		slog.String("order_ref", order.OrderRef),
		slog.String("user_id", userID),
		slog.Float64("total", order.TotalAmount),
	)
	return order, nil
}

func validateOrderInput(in *CreateOrderInput) error {
	switch {
	case len(in.Items) == 0:
		return fmt.Errorf("%w: заказ не содержит позиций", ErrValidation)
	case !model.ValidPaymentMethod(in.PaymentMethod):
		return fmt.Errorf("%w: paymentMethod должен быть card или cod", ErrValidation)
	case strings.TrimSpace(in.Customer.FirstName) == "" || strings.TrimSpace(in.Customer.Email) == "":
		return fmt.Errorf("%w: firstName и email обязательны", ErrValidation)
	case strings.TrimSpace(in.Customer.Address) == "" || strings.TrimSpace(in.Customer.City) == "":
		return fmt.Errorf("%w: address и city обязательны", ErrValidation)
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity должен быть >= 1", ErrValidation)
		}
		if item.MedicineID == "" {
			return fmt.Errorf("%w: productId обязателен", ErrValidation)
		}
	}
	return nil
}

// GetByID возвращает заказ. Владелец видит только свои заказы,
// администратор — любые.
func (s *OrderService) GetByID(ctx context.Context, id, userID string, isAdmin bool) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListByUser возвращает заказы пользователя.
func (s *OrderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// ListAll возвращает все заказы (панель администратора).
func (s *OrderService) ListAll(ctx context.Context, status *string, limit, offset int) ([]*model.Order, int, error) {
	if status != nil && !model.ValidOrderStatus(*status) {
		return nil, 0, fmt.Errorf("%w: недопустимый статус %q", ErrValidation, *status)
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orders.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus меняет статус заказа (панель администратора).
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: недопустимый статус %q", ErrValidation, status)
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// Cancel отменяет заказ владельца и возвращает остатки в каталог.
// Отменять можно только заказы, ещё не переданные в доставку.
func (s *OrderService) Cancel(ctx context.Context, id, userID string, isAdmin bool) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && order.UserID != userID {
		return ErrForbidden
	}
	switch order.Status {
	case model.OrderStatusShipped, model.OrderStatusDelivered:
		return fmt.Errorf("%w: заказ уже передан в доставку", ErrValidation)
	case model.OrderStatusCancelled:
		return fmt.Errorf("%w: заказ уже отменён", ErrValidation)
	}

	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		medRepo := repository.NewMedicineRepository(tx)
		for _, item := range order.Items {
			if err := medRepo.IncrementStock(ctx, item.MedicineID, item.Quantity); err != nil &&
				!errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		return repository.NewOrderRepository(tx).UpdateStatus(ctx, id, model.OrderStatusCancelled)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Заказ отменён",
		slog.String("order_ref", order.OrderRef),
		slog.String("user_id", order.UserID),
	)
	return nil
}
