package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MethodStatus is the lifecycle state of a configured payment method.
type MethodStatus string

const (
	MethodPendingApproval MethodStatus = "pending_approval"
	MethodActive          MethodStatus = "active"
	MethodInactive        MethodStatus = "inactive"
	MethodSuspended       MethodStatus = "suspended"
)

// Valid reports whether s is a known method status.
func (s MethodStatus) Valid() bool {
	switch s {
	case MethodPendingApproval, MethodActive, MethodInactive, MethodSuspended:
		return true
	}
	return false
}

// Limits bounds the amounts a method accepts.
type Limits struct {
	MinAmount    decimal.Decimal `json:"minAmount"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
	DailyLimit   decimal.Decimal `json:"dailyLimit"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
	Currency     string          `json:"currency"`
}

// DefaultLimits returns the limits applied to newly registered methods.
func DefaultLimits() Limits {
	return Limits{
		MinAmount:    decimal.NewFromInt(1),
		MaxAmount:    decimal.NewFromInt(100000),
		DailyLimit:   decimal.NewFromInt(1000000),
		MonthlyLimit: decimal.NewFromInt(10000000),
		Currency:     DefaultCurrency,
	}
}

// Valid checks the amount invariants: non-negative bounds and min <= max.
// Zero caps mean "no cap".
func (l Limits) Valid() bool {
	if l.MinAmount.IsNegative() || l.MaxAmount.IsNegative() {
		return false
	}
	if l.DailyLimit.IsNegative() || l.MonthlyLimit.IsNegative() {
		return false
	}
	return l.MinAmount.LessThanOrEqual(l.MaxAmount)
}

// Contains reports whether amount lies within [MinAmount, MaxAmount].
func (l Limits) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(l.MinAmount) && amount.LessThanOrEqual(l.MaxAmount)
}

// FeeSchedule is a percentage plus a fixed amount charged per transaction.
type FeeSchedule struct {
	Percentage decimal.Decimal `json:"percentage"`
	Fixed      decimal.Decimal `json:"fixed"`
}

// FeeFor computes the fee charged on amount, rounded to satang.
func (f FeeSchedule) FeeFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(f.Percentage).Div(decimal.NewFromInt(100)).Add(f.Fixed).Round(2)
}

// Usage holds the counters updated when a transaction completes.
type Usage struct {
	Count       int64           `json:"count"`
	TotalVolume decimal.Decimal `json:"totalVolume"`
	LastUsedAt  *time.Time      `json:"lastUsedAt,omitempty"`
}

// PaymentMethodConfig binds a merchant to one provider. Config holds the
// credential object with its sensitive fields encrypted.
type PaymentMethodConfig struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchantId"`
	Provider    ProviderType    `json:"provider"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      MethodStatus    `json:"status"`
	Config      json.RawMessage `json:"-"`
	Limits      Limits          `json:"limits"`
	Fees        FeeSchedule     `json:"fees"`
	Usage       Usage           `json:"usage"`
	IsEnabled   bool            `json:"isEnabled"`
	IsDefault   bool            `json:"isDefault"`
	Priority    int             `json:"priority"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Usable reports whether payments may be requested against the method.
func (m *PaymentMethodConfig) Usable() bool {
	return m.IsEnabled && m.Status == MethodActive
}
