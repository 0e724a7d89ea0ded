// Package payment is the multi-provider payment core: method registry,
// payment request orchestration, webhook processing and settlement.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/mstgnz/thaipay/signature"
	"github.com/mstgnz/thaipay/vault"
)

// DefaultExpiry is how long a payment payload stays valid.
const DefaultExpiry = 15 * time.Minute

// AdapterSource hands out the adapter bound to a provider type.
type AdapterSource interface {
	For(t model.ProviderType) (provider.Adapter, error)
}

// IDGenerator produces externally visible transaction ids.
type IDGenerator interface {
	NewTransactionID() string
}

type uuidIDs struct{}

func (uuidIDs) NewTransactionID() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Deps are the collaborators of a Service. Locker, Auditor, IDs, Fees,
// Expiry and Now have defaults.
type Deps struct {
	Methods      MethodRepository
	Transactions TransactionRepository
	Orders       OrderRepository
	Vault        *vault.Vault
	Adapters     AdapterSource
	Verifier     *signature.Verifier

	Fees    *provider.FeeTable
	Locker  Locker
	Auditor Auditor
	IDs     IDGenerator
	Expiry  time.Duration
	Now     func() time.Time
}

// Service implements every payment core operation.
type Service struct {
	methods      MethodRepository
	transactions TransactionRepository
	orders       OrderRepository
	vault        *vault.Vault
	adapters     AdapterSource
	verifier     *signature.Verifier
	fees         provider.FeeTable
	locker       Locker
	auditor      Auditor
	ids          IDGenerator
	expiry       time.Duration
	now          func() time.Time
}

// New validates d and builds a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Methods == nil, d.Transactions == nil, d.Orders == nil:
		return nil, errors.New("payment: repositories are required")
	case d.Vault == nil:
		return nil, vault.ErrMissingMasterKey
	case d.Adapters == nil:
		return nil, errors.New("payment: adapter source is required")
	case d.Verifier == nil:
		return nil, errors.New("payment: signature verifier is required")
	}

	s := &Service{
		methods:      d.Methods,
		transactions: d.Transactions,
		orders:       d.Orders,
		vault:        d.Vault,
		adapters:     d.Adapters,
		verifier:     d.Verifier,
		fees:         provider.DefaultFees(),
		locker:       d.Locker,
		auditor:      d.Auditor,
		ids:          d.IDs,
		expiry:       d.Expiry,
		now:          d.Now,
	}
	if d.Fees != nil {
		s.fees = *d.Fees
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.auditor == nil {
		s.auditor = LogAuditor{}
	}
	if s.ids == nil {
		s.ids = uuidIDs{}
	}
	if s.expiry <= 0 {
		s.expiry = DefaultExpiry
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// detached returns a context that survives cancellation of ctx, bounded by d.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
