package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/shopspring/decimal"
)

// Memory keeps every entity in maps, stored by value.
type Memory struct {
	mu           sync.RWMutex
	methods      map[string]model.PaymentMethodConfig
	transactions map[string]model.Transaction
	orders       map[string]model.Order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		methods:      make(map[string]model.PaymentMethodConfig),
		transactions: make(map[string]model.Transaction),
		orders:       make(map[string]model.Order),
	}
}

// Methods returns the payment method repository.
func (s *Memory) Methods() payment.MethodRepository { return memoryMethods{s} }

// Transactions returns the transaction repository.
func (s *Memory) Transactions() payment.TransactionRepository { return memoryTransactions{s} }

// Orders returns the order repository.
func (s *Memory) Orders() payment.OrderRepository { return memoryOrders{s} }

type memoryMethods struct{ s *Memory }

func (r memoryMethods) FindByID(_ context.Context, id string) (*model.PaymentMethodConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.methods[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (r memoryMethods) FindByMerchant(_ context.Context, merchantID string) ([]*model.PaymentMethodConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.PaymentMethodConfig
	for _, m := range r.s.methods {
		if m.MerchantID == merchantID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memoryMethods) FindByProvider(_ context.Context, merchantID string, p model.ProviderType) (*model.PaymentMethodConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.methods {
		if m.MerchantID == merchantID && m.Provider == p {
			return &m, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r memoryMethods) Save(_ context.Context, m *model.PaymentMethodConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.methods[m.ID]; ok {
		return model.ErrDuplicate
	}
	for _, existing := range r.s.methods {
		if existing.MerchantID == m.MerchantID && existing.Provider == m.Provider {
			return model.ErrDuplicate
		}
	}
	r.s.methods[m.ID] = *m
	return nil
}

func (r memoryMethods) Update(_ context.Context, m *model.PaymentMethodConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.methods[m.ID]
	if !ok {
		return model.ErrNotFound
	}
	// Usage is owned by RecordUsage.
	next := *m
	next.Usage = current.Usage
	r.s.methods[m.ID] = next
	return nil
}

func (r memoryMethods) RecordUsage(_ context.Context, id string, amount decimal.Decimal, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.methods[id]
	if !ok {
		return model.ErrNotFound
	}
	m.Usage.Count++
	m.Usage.TotalVolume = m.Usage.TotalVolume.Add(amount)
	m.Usage.LastUsedAt = &at
	m.UpdatedAt = at
	r.s.methods[id] = m
	return nil
}

type memoryTransactions struct{ s *Memory }

func (r memoryTransactions) FindByID(_ context.Context, id string) (*model.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &tx, nil
}

func (r memoryTransactions) FindByMerchant(_ context.Context, merchantID string, f payment.TransactionFilter) ([]*model.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Transaction
	for _, tx := range r.s.transactions {
		if tx.MerchantID != merchantID {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
			continue
		}
		tx := tx
		out = append(out, &tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memoryTransactions) Save(_ context.Context, tx *model.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.transactions[tx.TransactionID]; ok {
		return model.ErrDuplicate
	}
	r.s.transactions[tx.TransactionID] = *tx
	return nil
}

func (r memoryTransactions) UpdateStatus(_ context.Context, id string, expected model.TransactionStatus, u model.StatusUpdate) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.transactions[id]
	if !ok {
		return false, model.ErrNotFound
	}
	if tx.Status != expected {
		return false, nil
	}
	u.Apply(&tx)
	r.s.transactions[id] = tx
	return true, nil
}

func (r memoryTransactions) SumVolume(_ context.Context, methodID string, from, to time.Time) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range r.s.transactions {
		if tx.PaymentMethodID != methodID || tx.Status == model.StatusFailed || tx.Status == model.StatusCancelled {
			continue
		}
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total, nil
}

type memoryOrders struct{ s *Memory }

func (r memoryOrders) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &o, nil
}

func (r memoryOrders) FindByMerchant(_ context.Context, merchantID string) ([]*model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Order
	for _, o := range r.s.orders {
		if o.MerchantID == merchantID {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryOrders) Save(_ context.Context, o *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; ok {
		return model.ErrDuplicate
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r memoryOrders) SetStatus(_ context.Context, id string, status model.OrderStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return model.ErrNotFound
	}
	o.Status = status
	if status == model.OrderConfirmed && o.ConfirmedAt == nil {
		o.ConfirmedAt = &at
	}
	o.UpdatedAt = at
	r.s.orders[id] = o
	return nil
}
