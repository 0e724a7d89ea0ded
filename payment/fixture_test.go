package payment_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mstgnz/thaipay/infra/storage"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/mstgnz/thaipay/provider"
	"github.com/mstgnz/thaipay/signature"
	"github.com/mstgnz/thaipay/vault"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	kbankSecret     = "kbank-webhook-secret"
	truemoneySecret = "truemoney-webhook-secret"
	omiseSecret     = "omise-webhook-secret"
)

var now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type stubAdapter struct {
	mu    sync.Mutex
	calls int
	err   error
	block bool
	creds provider.Credentials
}

func (a *stubAdapter) Metadata() provider.Metadata {
	return provider.Metadata{Type: model.ProviderKBank, DisplayName: "Stub", Kind: provider.KindRedirect}
}

func (a *stubAdapter) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{{Key: "apiKey", Required: true, Type: "string"}}
}

func (a *stubAdapter) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, _ *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	a.mu.Lock()
	a.calls++
	a.creds = creds
	err, block := a.err, a.block
	a.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &provider.Payload{
		Kind:        provider.KindRedirect,
		URL:         "https://pay.example.com/" + tx.TransactionID,
		ReferenceNo: tx.TransactionID,
		Raw:         json.RawMessage(`{"status":"pending"}`),
	}, nil
}

func (a *stubAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fixture struct {
	svc     *payment.Service
	store   *storage.Memory
	adapter *stubAdapter
	vault   *vault.Vault
}

// noLock lets every caller through, leaving serialization to the
// conditional status update.
type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

func newFixture(t *testing.T, opts ...func(*payment.Deps)) *fixture {
	t.Helper()

	v, err := vault.New("test-master-key", vault.WithScryptParams(1024, 8, 1))
	require.NoError(t, err)

	adapter := &stubAdapter{}
	registry := provider.NewRegistry()
	registry.Register(model.ProviderKBank, func(provider.Options) provider.Adapter { return adapter })

	store := storage.NewMemory()
	deps := payment.Deps{
		Methods:      store.Methods(),
		Transactions: store.Transactions(),
		Orders:       store.Orders(),
		Vault:        v,
		Adapters:     provider.NewSet(registry, provider.Options{}),
		Verifier: signature.NewVerifier(signature.Config{
			Secrets: map[string]string{"kbank": kbankSecret, "truemoney": truemoneySecret, "omise": omiseSecret},
		}),
		Auditor: payment.LogAuditor{},
		Now:     func() time.Time { return now },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc, err := payment.New(deps)
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, adapter: adapter, vault: v}
}

// withAdapter routes p to its own stub adapter alongside kbank.
func withAdapter(p model.ProviderType) func(*payment.Deps) {
	return func(d *payment.Deps) {
		registry := provider.NewRegistry()
		registry.Register(model.ProviderKBank, func(provider.Options) provider.Adapter { return &stubAdapter{} })
		registry.Register(p, func(provider.Options) provider.Adapter { return &stubAdapter{} })
		d.Adapters = provider.NewSet(registry, provider.Options{})
	}
}

func withLocker(l payment.Locker) func(*payment.Deps) {
	return func(d *payment.Deps) { d.Locker = l }
}

func (f *fixture) order(t *testing.T, merchant string) *model.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), payment.CreateOrderInput{
		MerchantID: merchant,
		Subtotal:   decimal.NewFromInt(1000),
		Customer:   model.Customer{Name: "Somchai"},
	})
	require.NoError(t, err)
	return o
}

// activeMethod registers an approved kbank method for merchant.
func (f *fixture) activeMethod(t *testing.T, merchant string, limits *model.Limits) *model.PaymentMethodConfig {
	t.Helper()
	return f.activeMethodFor(t, merchant, model.ProviderKBank, limits)
}

func (f *fixture) activeMethodFor(t *testing.T, merchant string, p model.ProviderType, limits *model.Limits) *model.PaymentMethodConfig {
	t.Helper()
	ctx := context.Background()
	m, err := f.svc.RegisterMethod(ctx, payment.RegisterMethodInput{
		MerchantID:  merchant,
		Provider:    p,
		Name:        string(p) + " QR",
		Credentials: provider.Credentials{APIKey: "kb-live-key", MerchantID: "KB001", Sandbox: true},
		Limits:      limits,
	})
	require.NoError(t, err)
	m, err = f.svc.UpdateMethodStatus(ctx, m.ID, model.MethodActive)
	require.NoError(t, err)
	return m
}

func (f *fixture) pendingTransaction(t *testing.T, merchant, amount string) *model.Transaction {
	t.Helper()
	return f.pendingTransactionFor(t, merchant, model.ProviderKBank, amount)
}

func (f *fixture) pendingTransactionFor(t *testing.T, merchant string, p model.ProviderType, amount string) *model.Transaction {
	t.Helper()
	m := f.activeMethodFor(t, merchant, p, nil)
	o := f.order(t, merchant)
	res, err := f.svc.GeneratePaymentRequest(context.Background(), payment.PaymentRequest{
		OrderID:         o.ID,
		PaymentMethodID: m.ID,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "THB",
	})
	require.NoError(t, err)
	tx, err := f.svc.GetTransaction(context.Background(), res.TransactionID)
	require.NoError(t, err)
	return tx
}
