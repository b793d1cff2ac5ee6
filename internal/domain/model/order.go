package model

import "time"

// Статусы заказа.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Способы оплаты.
const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
)

// ValidOrderStatus сообщает, является ли статус заказа допустимым.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod сообщает, является ли способ оплаты допустимым.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCard || m == PaymentMethodCOD
}

// CustomerInfo — данные получателя заказа.
type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// OrderItem — позиция заказа. ProductName и Price фиксируются на момент
// оформления: последующие изменения каталога на заказ не влияют.
type OrderItem struct {
	MedicineID  string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Order — заказ покупателя.
type Order struct {
	// ID — UUID записи.
	ID string `json:"id"`
	// OrderRef — внешний номер заказа (ORD-<timestamp>-<случайное число>).
	OrderRef string `json:"orderId"`
	// UserID — идентификатор пользователя из JWT.
	UserID string `json:"userId"`

	Customer CustomerInfo `json:"customerInfo"`
	Items    []OrderItem  `json:"products"`

	Subtotal      float64 `json:"subtotal"`
	Shipping      float64 `json:"shipping"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
