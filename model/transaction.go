package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a payment attempt.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusRefunded   TransactionStatus = "refunded"
)

// Terminal reports whether no callback may move the status any further.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Who may drive a transition.
type Actor int

const (
	ActorProvider Actor = iota
	ActorAdmin
)

var providerTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

var adminTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusCancelled},
	StatusProcessing: {StatusCancelled},
	StatusCompleted:  {StatusRefunded},
}

// CanTransition reports whether actor may move a transaction from one status
// to another. Provider callbacks may skip processing; completed -> refunded and
// cancellation belong to admins only.
func CanTransition(actor Actor, from, to TransactionStatus) bool {
	table := providerTransitions
	if actor == ActorAdmin {
		table = adminTransitions
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transaction is a single payment attempt against an order.
type Transaction struct {
	TransactionID    string            `json:"transactionId"`
	MerchantID       string            `json:"merchantId"`
	OrderID          string            `json:"orderId"`
	PaymentMethodID  string            `json:"paymentMethodId"`
	Provider         ProviderType      `json:"provider"`
	Amount           decimal.Decimal   `json:"amount"`
	Fee              decimal.Decimal   `json:"fee"`
	Currency         string            `json:"currency"`
	Status           TransactionStatus `json:"status"`
	Description      string            `json:"description,omitempty"`
	FailureReason    string            `json:"failureReason,omitempty"`
	ProviderResponse json.RawMessage   `json:"providerResponse,omitempty"`
	ExpiresAt        time.Time         `json:"expiresAt"`
	CreatedAt        time.Time         `json:"createdAt"`
	ProcessedAt      *time.Time        `json:"processedAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NetAmount is the amount owed to the merchant after the recorded fee.
func (t *Transaction) NetAmount() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}

// StatusUpdate describes a conditional status change. Nil pointers leave the
// stored column untouched.
type StatusUpdate struct {
	Status           TransactionStatus
	FailureReason    *string
	ProviderResponse json.RawMessage
	ProcessedAt      *time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

// Apply copies the update onto t.
func (u StatusUpdate) Apply(t *Transaction) {
	t.Status = u.Status
	if u.FailureReason != nil {
		t.FailureReason = *u.FailureReason
	}
	if u.ProviderResponse != nil {
		t.ProviderResponse = u.ProviderResponse
	}
	if u.ProcessedAt != nil {
		t.ProcessedAt = u.ProcessedAt
	}
	if u.CompletedAt != nil {
		t.CompletedAt = u.CompletedAt
	}
	t.UpdatedAt = u.UpdatedAt
}
