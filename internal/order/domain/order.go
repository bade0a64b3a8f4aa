package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentMobileMoney    PaymentMethod = "MOBILE_MONEY"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMobileMoney || m == PaymentCashOnDelivery
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Delivery struct {
	Address      string
	Town         string
	County       string
	Instructions string
}

type OrderItemRequest struct {
	ProductID string
	Name      string
	Unit      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CreateOrderRequest struct {
	Customer         Customer
	Delivery         Delivery
	PaymentMethod    PaymentMethod
	MobileMoneyPhone string
	DeliveryFee      decimal.Decimal
	Items            []OrderItemRequest
}

// Order is the assembled request sent to the order service.
type Order struct {
	Customer         Customer
	Delivery         Delivery
	PaymentMethod    PaymentMethod
	MobileMoneyPhone string
	Items            []OrderItem
	SubTotalAmount   decimal.Decimal
	DeliveryFee      decimal.Decimal
	TotalAmount      decimal.Decimal
}

type OrderItem struct {
	ProductID       string
	Name            string
	Unit            string
	UnitPrice       decimal.Decimal
	Quantity        int
	LineTotalAmount decimal.Decimal
}

// OrderResult is what the order service returned for a placed order.
type OrderResult struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
