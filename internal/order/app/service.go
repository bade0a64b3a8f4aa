package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/farmgate/internal/order/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNoItems      = errors.New("order has no items")
	ErrInvalidOrder = errors.New("invalid order")
)

type Service struct {
	gateway OrderGateway
}

func NewService(gateway OrderGateway) *Service {
	return &Service{gateway: gateway}
}

// Assemble validates the request and computes line totals, subtotal and
// total (subtotal plus delivery fee).
func Assemble(req domain.CreateOrderRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, ErrNoItems
	}
	if req.DeliveryFee.IsNegative() {
		return domain.Order{}, fmt.Errorf("%w: delivery fee cannot be negative, got %s", ErrInvalidOrder, req.DeliveryFee)
	}
	if !req.PaymentMethod.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, req.PaymentMethod)
	}
	if req.PaymentMethod == domain.PaymentMobileMoney && strings.TrimSpace(req.MobileMoneyPhone) == "" {
		return domain.Order{}, fmt.Errorf("%w: mobile money needs a phone number", ErrInvalidOrder)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	subTotal := decimal.Zero

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d: quantity must be positive, got %d", ErrInvalidOrder, i, item.Quantity)
		}
		if !item.UnitPrice.IsPositive() {
			return domain.Order{}, fmt.Errorf("%w: item %d: unit price must be positive, got %s", ErrInvalidOrder, i, item.UnitPrice)
		}

		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, domain.OrderItem{
			ProductID:       item.ProductID,
			Name:            item.Name,
			Unit:            item.Unit,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			LineTotalAmount: lineTotal,
		})
		subTotal = subTotal.Add(lineTotal)
	}

	return domain.Order{
		Customer:         req.Customer,
		Delivery:         req.Delivery,
		PaymentMethod:    req.PaymentMethod,
		MobileMoneyPhone: req.MobileMoneyPhone,
		Items:            items,
		SubTotalAmount:   subTotal,
		DeliveryFee:      req.DeliveryFee,
		TotalAmount:      subTotal.Add(req.DeliveryFee),
	}, nil
}

// PlaceOrder assembles the order and submits it. Backend errors are returned
// wrapped; their message is meant for the user.
func (s *Service) PlaceOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.OrderResult, error) {
	order, err := Assemble(req)
	if err != nil {
		return domain.OrderResult{}, err
	}

	res, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("create order: %w", err)
	}
	if res.OrderID == "" && res.OrderNumber == "" {
		return domain.OrderResult{}, errors.New("create order: response has no order id")
	}
	if res.OrderNumber == "" {
		res.OrderNumber = res.OrderID
	}
	if res.OrderID == "" {
		res.OrderID = res.OrderNumber
	}
	if res.TotalAmount.IsZero() {
		res.TotalAmount = order.TotalAmount
	}
	return res, nil
}
