package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the commercial state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
	OrderExpired    OrderStatus = "expired"
)

// Customer identifies the payer.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ThaiDetails carries the fields specific to Thai commerce.
type ThaiDetails struct {
	PromptPayID    string `json:"promptPayId,omitempty"`
	TaxInvoice     bool   `json:"taxInvoice"`
	TaxID          string `json:"taxId,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	BranchCode     string `json:"branchCode,omitempty"`
	BillingAddress string `json:"billingAddress,omitempty"`
}

// Order is the commercial intent a transaction pays for.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	MerchantID  string          `json:"merchantId"`
	Status      OrderStatus     `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Shipping    decimal.Decimal `json:"shipping"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Customer    Customer        `json:"customer"`
	Thai        ThaiDetails     `json:"thaiSpecific"`
	Notes       string          `json:"notes,omitempty"`
	ConfirmedAt *time.Time      `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ComputeTotal returns subtotal + tax + shipping - discount.
func (o *Order) ComputeTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Tax).Add(o.Shipping).Sub(o.Discount)
}
