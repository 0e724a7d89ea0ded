package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mstgnz/thaipay/infra/config"
	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

// CreateOrderInput describes a new order.
type CreateOrderInput struct {
	MerchantID  string            `json:"merchantId" validate:"required,max=64"`
	OrderNumber string            `json:"orderNumber" validate:"max=64"`
	Subtotal    decimal.Decimal   `json:"subtotal" validate:"gte=0"`
	Tax         decimal.Decimal   `json:"tax" validate:"gte=0"`
	Shipping    decimal.Decimal   `json:"shipping" validate:"gte=0"`
	Discount    decimal.Decimal   `json:"discount" validate:"gte=0"`
	Currency    string            `json:"currency" validate:"omitempty,currency"`
	Customer    model.Customer    `json:"customer"`
	Thai        model.ThaiDetails `json:"thaiSpecific"`
	Notes       string            `json:"notes" validate:"max=1000"`
}

// CreateOrder stores a pending order. The total is derived from its parts.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if err := config.App().Validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for _, v := range []decimal.Decimal{in.Subtotal, in.Tax, in.Shipping, in.Discount} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
		}
	}

	now := s.timestamp()
	o := &model.Order{
		ID:          uuid.NewString(),
		OrderNumber: in.OrderNumber,
		MerchantID:  in.MerchantID,
		Status:      model.OrderPending,
		Subtotal:    in.Subtotal,
		Tax:         in.Tax,
		Shipping:    in.Shipping,
		Discount:    in.Discount,
		Currency:    strings.ToUpper(in.Currency),
		Customer:    in.Customer,
		Thai:        in.Thai,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if o.Currency == "" {
		o.Currency = model.DefaultCurrency
	}
	if o.OrderNumber == "" {
		o.OrderNumber = fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(o.ID[:8]))
	}
	o.Total = o.ComputeTotal()
	if o.Total.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds order value", ErrInvalidInput)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder returns an order by id.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}
