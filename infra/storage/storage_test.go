package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "thaipay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func newMethod(id, merchant string, p model.ProviderType) *model.PaymentMethodConfig {
	return &model.PaymentMethodConfig{
		ID:         id,
		MerchantID: merchant,
		Provider:   p,
		Name:       string(p),
		Status:     model.MethodActive,
		Config:     json.RawMessage(`{"apiKey":"sealed"}`),
		Limits:     model.DefaultLimits(),
		Fees:       model.FeeSchedule{Percentage: decimal.RequireFromString("1.5"), Fixed: decimal.NewFromInt(10)},
		Usage:      model.Usage{TotalVolume: decimal.Zero},
		IsEnabled:  true,
		CreatedAt:  base,
		UpdatedAt:  base,
	}
}

func newTransaction(id, merchant, methodID string, amount string, status model.TransactionStatus, created time.Time) *model.Transaction {
	return &model.Transaction{
		TransactionID:   id,
		MerchantID:      merchant,
		OrderID:         "order-1",
		PaymentMethodID: methodID,
		Provider:        model.ProviderKBank,
		Amount:          decimal.RequireFromString(amount),
		Fee:             decimal.RequireFromString("1.00"),
		Currency:        "THB",
		Status:          status,
		ExpiresAt:       created.Add(15 * time.Minute),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestOpenSQLite_CreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "thaipay.db")
	s, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	// Schema creation is idempotent.
	require.NoError(t, s.initSchema())
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", sqliteDialect.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.rebind("a = ? AND b = ?"))
}

func TestMethods(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Methods()

			m := newMethod("pm-1", "M1", model.ProviderKBank)
			require.NoError(t, repo.Save(ctx, m))

			got, err := repo.FindByID(ctx, "pm-1")
			require.NoError(t, err)
			assert.Equal(t, "M1", got.MerchantID)
			assert.True(t, got.Limits.MaxAmount.Equal(decimal.NewFromInt(100000)))
			assert.True(t, got.Fees.Percentage.Equal(decimal.RequireFromString("1.5")))
			assert.JSONEq(t, `{"apiKey":"sealed"}`, string(got.Config))
			assert.True(t, got.IsEnabled)
			assert.Equal(t, base, got.CreatedAt)

			dup := newMethod("pm-2", "M1", model.ProviderKBank)
			assert.ErrorIs(t, repo.Save(ctx, dup), model.ErrDuplicate)

			_, err = repo.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, model.ErrNotFound)

			byProvider, err := repo.FindByProvider(ctx, "M1", model.ProviderKBank)
			require.NoError(t, err)
			assert.Equal(t, "pm-1", byProvider.ID)

			require.NoError(t, repo.Save(ctx, newMethod("pm-3", "M1", model.ProviderOmise)))
			all, err := repo.FindByMerchant(ctx, "M1")
			require.NoError(t, err)
			assert.Len(t, all, 2)

			got.Status = model.MethodSuspended
			got.Usage.Count = 99
			require.NoError(t, repo.Update(ctx, got))
			got, err = repo.FindByID(ctx, "pm-1")
			require.NoError(t, err)
			assert.Equal(t, model.MethodSuspended, got.Status)
			assert.Equal(t, int64(0), got.Usage.Count, "update must not touch usage")

			assert.ErrorIs(t, repo.Update(ctx, newMethod("missing", "M1", model.ProviderBBL)), model.ErrNotFound)
		})
	}
}

func TestMethods_RecordUsageConcurrent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Methods()
			require.NoError(t, repo.Save(ctx, newMethod("pm-1", "M1", model.ProviderKBank)))

			const workers = 8
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, repo.RecordUsage(ctx, "pm-1", decimal.RequireFromString("12.50"), base))
				}()
			}
			wg.Wait()

			got, err := repo.FindByID(ctx, "pm-1")
			require.NoError(t, err)
			assert.Equal(t, int64(workers), got.Usage.Count)
			assert.True(t, got.Usage.TotalVolume.Equal(decimal.NewFromInt(100)), got.Usage.TotalVolume.String())
			require.NotNil(t, got.Usage.LastUsedAt)
			assert.Equal(t, base, *got.Usage.LastUsedAt)
		})
	}
}

func TestTransactions_UpdateStatus(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Transactions()
			require.NoError(t, repo.Save(ctx, newTransaction("TXN-1", "M1", "pm-1", "100", model.StatusPending, base)))
			assert.ErrorIs(t, repo.Save(ctx, newTransaction("TXN-1", "M1", "pm-1", "100", model.StatusPending, base)), model.ErrDuplicate)

			done := base.Add(time.Minute)
			update := model.StatusUpdate{
				Status:           model.StatusCompleted,
				ProviderResponse: json.RawMessage(`{"status":"paid"}`),
				ProcessedAt:      &done,
				CompletedAt:      &done,
				UpdatedAt:        done,
			}
			ok, err := repo.UpdateStatus(ctx, "TXN-1", model.StatusPending, update)
			require.NoError(t, err)
			assert.True(t, ok)

			// Second writer expected pending and loses.
			ok, err = repo.UpdateStatus(ctx, "TXN-1", model.StatusPending, update)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = repo.UpdateStatus(ctx, "TXN-404", model.StatusPending, update)
			assert.ErrorIs(t, err, model.ErrNotFound)

			got, err := repo.FindByID(ctx, "TXN-1")
			require.NoError(t, err)
			assert.Equal(t, model.StatusCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)
			assert.Equal(t, done, *got.CompletedAt)
			assert.JSONEq(t, `{"status":"paid"}`, string(got.ProviderResponse))
			assert.Empty(t, got.FailureReason)
		})
	}
}

func TestTransactions_UpdateStatusConcurrent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Transactions()
			require.NoError(t, repo.Save(ctx, newTransaction("TXN-1", "M1", "pm-1", "100", model.StatusPending, base)))

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := repo.UpdateStatus(ctx, "TXN-1", model.StatusPending, model.StatusUpdate{
						Status:    model.StatusCompleted,
						UpdatedAt: base,
					})
					assert.NoError(t, err)
					if ok {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, wins)
		})
	}
}

func TestTransactions_FindByMerchantAndSumVolume(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Transactions()
			to := base.Add(time.Hour)
			for _, tx := range []*model.Transaction{
				newTransaction("TXN-1", "M1", "pm-1", "1000", model.StatusCompleted, base),
				newTransaction("TXN-2", "M1", "pm-1", "500", model.StatusCompleted, base.Add(time.Minute)),
				newTransaction("TXN-3", "M1", "pm-1", "250", model.StatusPending, base.Add(2*time.Minute)),
				newTransaction("TXN-4", "M1", "pm-1", "75", model.StatusFailed, base.Add(3*time.Minute)),
				newTransaction("TXN-5", "M1", "pm-1", "60", model.StatusCompleted, to),
				newTransaction("TXN-6", "M2", "pm-2", "10", model.StatusCompleted, base),
			} {
				require.NoError(t, repo.Save(ctx, tx))
			}

			completed, err := repo.FindByMerchant(ctx, "M1", payment.TransactionFilter{
				Status: model.StatusCompleted,
				From:   base,
				To:     to,
			})
			require.NoError(t, err)
			require.Len(t, completed, 2)
			assert.Equal(t, "TXN-1", completed[0].TransactionID)
			assert.Equal(t, "TXN-2", completed[1].TransactionID)

			all, err := repo.FindByMerchant(ctx, "M1", payment.TransactionFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 5)

			volume, err := repo.SumVolume(ctx, "pm-1", base, to)
			require.NoError(t, err)
			assert.True(t, volume.Equal(decimal.NewFromInt(1750)), volume.String())
		})
	}
}

func TestOrders(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Orders()
			o := &model.Order{
				ID:          "order-1",
				OrderNumber: "ORD-1",
				MerchantID:  "M1",
				Status:      model.OrderPending,
				Subtotal:    decimal.NewFromInt(100),
				Tax:         decimal.NewFromInt(7),
				Shipping:    decimal.Zero,
				Discount:    decimal.Zero,
				Total:       decimal.NewFromInt(107),
				Currency:    "THB",
				Customer:    model.Customer{Name: "Somchai", Email: "somchai@example.com"},
				Thai:        model.ThaiDetails{PromptPayID: "0812345678", TaxInvoice: true},
				CreatedAt:   base,
				UpdatedAt:   base,
			}
			require.NoError(t, repo.Save(ctx, o))

			got, err := repo.FindByID(ctx, "order-1")
			require.NoError(t, err)
			assert.Equal(t, "Somchai", got.Customer.Name)
			assert.Equal(t, "0812345678", got.Thai.PromptPayID)
			assert.True(t, got.Total.Equal(decimal.NewFromInt(107)))
			assert.Nil(t, got.ConfirmedAt)

			confirmed := base.Add(time.Minute)
			require.NoError(t, repo.SetStatus(ctx, "order-1", model.OrderConfirmed, confirmed))
			require.NoError(t, repo.SetStatus(ctx, "order-1", model.OrderConfirmed, confirmed.Add(time.Hour)))
			got, err = repo.FindByID(ctx, "order-1")
			require.NoError(t, err)
			assert.Equal(t, model.OrderConfirmed, got.Status)
			require.NotNil(t, got.ConfirmedAt)
			assert.Equal(t, confirmed, *got.ConfirmedAt)

			assert.ErrorIs(t, repo.SetStatus(ctx, "missing", model.OrderConfirmed, base), model.ErrNotFound)

			list, err := repo.FindByMerchant(ctx, "M1")
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}
