package payment

import (
	"context"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

// MethodRepository persists payment method configurations. Implementations
// return model.ErrNotFound for unknown ids and model.ErrDuplicate when a
// merchant already has a method for the provider.
type MethodRepository interface {
	FindByID(ctx context.Context, id string) (*model.PaymentMethodConfig, error)
	FindByMerchant(ctx context.Context, merchantID string) ([]*model.PaymentMethodConfig, error)
	FindByProvider(ctx context.Context, merchantID string, p model.ProviderType) (*model.PaymentMethodConfig, error)
	Save(ctx context.Context, m *model.PaymentMethodConfig) error
	Update(ctx context.Context, m *model.PaymentMethodConfig) error
	// RecordUsage atomically adds one transaction of amount to the counters.
	RecordUsage(ctx context.Context, id string, amount decimal.Decimal, at time.Time) error
}

// TransactionFilter narrows FindByMerchant. Zero values do not filter;
// the window is half open on CreatedAt.
type TransactionFilter struct {
	Status model.TransactionStatus
	From   time.Time
	To     time.Time
}

// TransactionRepository persists transactions.
type TransactionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	// FindByMerchant returns matches ordered by CreatedAt ascending.
	FindByMerchant(ctx context.Context, merchantID string, f TransactionFilter) ([]*model.Transaction, error)
	Save(ctx context.Context, tx *model.Transaction) error
	// UpdateStatus applies u only if the stored status still equals expected.
	// It reports whether the row was changed.
	UpdateStatus(ctx context.Context, id string, expected model.TransactionStatus, u model.StatusUpdate) (bool, error)
	// SumVolume totals the amounts of non-failed, non-cancelled transactions
	// of a payment method created in [from, to).
	SumVolume(ctx context.Context, methodID string, from, to time.Time) (decimal.Decimal, error)
}

// OrderRepository persists orders.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByMerchant(ctx context.Context, merchantID string) ([]*model.Order, error)
	Save(ctx context.Context, o *model.Order) error
	// SetStatus changes the order status; confirmed also stamps ConfirmedAt.
	SetStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error
}
