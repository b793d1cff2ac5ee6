package model

import "time"

// Статусы платежа.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// ValidPaymentStatus сообщает, является ли статус платежа допустимым.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment — запись об оплате заказа. Один платёж на заказ.
type Payment struct {
	// ID — UUID записи.
	ID string `json:"id"`
	// OrderID — UUID заказа (уникален: один платёж на заказ).
	OrderID string `json:"orderId"`
	// UserID — идентификатор пользователя из JWT.
	UserID string `json:"userId"`

	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`

	// StripeSessionID — ID checkout-сессии Stripe (только для card).
	StripeSessionID string `json:"stripeSessionId,omitempty"`
	// StripePaymentIntentID — ID payment intent Stripe (только для card).
	StripePaymentIntentID string `json:"stripePaymentIntentId,omitempty"`
	// TransactionID — внешний идентификатор транзакции.
	TransactionID string `json:"transactionId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
