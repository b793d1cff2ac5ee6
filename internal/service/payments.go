// payments.go — оплата заказов: Stripe checkout (embedded) и наложенный платёж.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
)

// Валюта платежей.
const paymentCurrency = "pkr"

// CheckoutSession — данные embedded checkout-сессии для фронтенда.
type CheckoutSession struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
}

// PaymentService — платежи. Stripe используется только для метода card;
// для наложенного платежа (cod) запись создаётся сразу со статусом pending.
type PaymentService struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	clientURL string
	logger    *slog.Logger
}

// NewPaymentService создаёт сервис платежей и настраивает Stripe API key.
func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	stripeSecretKey, clientURL string,
	logger *slog.Logger,
) *PaymentService {
	stripe.Key = stripeSecretKey
	return &PaymentService{
		payments:  payments,
		orders:    orders,
		clientURL: clientURL,
		logger:    logger.With(slog.String("component", "payments")),
	}
}

// CreateCheckoutSession создаёт embedded checkout-сессию Stripe для заказа.
// Позиции сессии строятся из зафиксированных позиций заказа.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID, orderID string) (*CheckoutSession, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.PaymentMethod != model.PaymentMethodCard {
		return nil, fmt.Errorf("%w: заказ оформлен не для оплаты картой", ErrValidation)
	}

	// Повторная оплата одного заказа запрещена
	if existing, err := s.payments.GetByOrderID(ctx, orderID); err == nil {
		if existing.Status == model.PaymentStatusCompleted {
			return nil, fmt.Errorf("%w: заказ уже оплачен", repository.ErrConflict)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(paymentCurrency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
				UnitAmount: stripe.Int64(int64(item.Price * 100)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	if order.Shipping > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(paymentCurrency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
				UnitAmount: stripe.Int64(int64(order.Shipping * 100)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		ReturnURL: stripe.String(s.clientURL + "/checkout/return?session_id={CHECKOUT_SESSION_ID}"),
		LineItems: lineItems,
		Metadata: map[string]string{
			"orderRef": order.OrderRef,
			"orderId":  order.ID,
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: создание checkout-сессии: %v", ErrPaymentUnavailable, err)
	}

	payment := &model.Payment{
		ID:              uuid.NewString(),
		OrderID:         order.ID,
		UserID:          userID,
		PaymentMethod:   model.PaymentMethodCard,
		Amount:          order.TotalAmount,
		Status:          model.PaymentStatusPending,
		StripeSessionID: sess.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	s.logger.Info("Checkout-сессия создана",
		slog.String("order_ref", order.OrderRef),
		slog.String("session_id", sess.ID),
	)
	return &CheckoutSession{
		SessionID:    sess.ID,
		ClientSecret: sess.ClientSecret,
	}, nil
}

// SessionStatus запрашивает статус checkout-сессии у Stripe и
// синхронизирует локальную запись платежа и статус заказа.
func (s *PaymentService) SessionStatus(ctx context.Context, userID, sessionID string) (*model.Payment, error) {
	payment, err := s.payments.GetByStripeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrForbidden
	}

	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: запрос checkout-сессии: %v", ErrPaymentUnavailable, err)
	}

	if sess.Status == stripe.CheckoutSessionStatusComplete &&
		payment.Status != model.PaymentStatusCompleted {
		intentID := ""
		if sess.PaymentIntent != nil {
			intentID = sess.PaymentIntent.ID
		}
		if err := s.payments.UpdateStatus(ctx, payment.ID,
			model.PaymentStatusCompleted, intentID, ""); err != nil {
			return nil, err
		}
		if err := s.orders.UpdateStatus(ctx, payment.OrderID, model.OrderStatusConfirmed); err != nil &&
			!errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		s.logger.Info("Платёж завершён",
			slog.String("session_id", sessionID),
			slog.String("order_id", payment.OrderID),
		)
	}

	return s.payments.GetByStripeSession(ctx, sessionID)
}

// RecordCOD создаёт запись об оплате при получении для заказа cod.
func (s *PaymentService) RecordCOD(ctx context.Context, userID, orderID string) (*model.Payment, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.PaymentMethod != model.PaymentMethodCOD {
		return nil, fmt.Errorf("%w: заказ оформлен не для наложенного платежа", ErrValidation)
	}

	payment := &model.Payment{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		UserID:        userID,
		PaymentMethod: model.PaymentMethodCOD,
		Amount:        order.TotalAmount,
		Status:        model.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetByOrder возвращает платёж заказа с проверкой владельца.
func (s *PaymentService) GetByOrder(ctx context.Context, userID, orderID string, isAdmin bool) (*model.Payment, error) {
	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && payment.UserID != userID {
		return nil, ErrForbidden
	}
	return payment, nil
}

// ListByUser возвращает платежи пользователя.
func (s *PaymentService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.payments.ListByUser(ctx, userID, limit, offset)
}
