package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/shopspring/decimal"
)

// failureWriteTimeout bounds the write that marks a transaction failed after
// the caller's context is gone.
const failureWriteTimeout = 5 * time.Second

// PaymentRequest asks for a payment payload for an order.
type PaymentRequest struct {
	OrderID         string          `json:"orderId" validate:"required"`
	PaymentMethodID string          `json:"paymentMethodId" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"omitempty,currency"`
	Description     string          `json:"description,omitempty" validate:"max=255"`
}

// PaymentResult is what the payer needs to complete a payment.
type PaymentResult struct {
	TransactionID string            `json:"transactionId"`
	Status        string            `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	Currency      string            `json:"currency"`
	Payload       *provider.Payload `json:"paymentPayload"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}

// GeneratePaymentRequest validates the request, persists a pending
// transaction and asks the bound adapter for a payload. No transaction is
// created when validation fails. When the adapter fails the transaction is
// marked failed with the reason and the adapter error is returned.
func (s *Service) GeneratePaymentRequest(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, err
	}

	method, err := s.methods.FindByID(ctx, req.PaymentMethodID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrPaymentMethodNotFound
	} else if err != nil {
		return nil, err
	}
	if method.MerchantID != order.MerchantID {
		return nil, ErrPaymentMethodNotFound
	}
	if !method.Usable() {
		return nil, fmt.Errorf("%w: method %s is not enabled", ErrPaymentMethodNotFound, method.ID)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = method.Limits.Currency
	}
	if currency != method.Limits.Currency {
		return nil, fmt.Errorf("%w: %s", ErrCurrencyMismatch, currency)
	}
	if !req.Amount.IsPositive() || !method.Limits.Contains(req.Amount) {
		return nil, fmt.Errorf("%w: %s not in [%s, %s]", ErrAmountOutOfRange,
			req.Amount.String(), method.Limits.MinAmount.String(), method.Limits.MaxAmount.String())
	}

	adapter, err := s.adapters.For(method.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, method.Provider)
	}
	creds, err := s.DecryptCredentials(method)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	if err := s.checkVolume(ctx, method, req.Amount, now); err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		TransactionID:   s.ids.NewTransactionID(),
		MerchantID:      order.MerchantID,
		OrderID:         order.ID,
		PaymentMethodID: method.ID,
		Provider:        method.Provider,
		Amount:          req.Amount,
		Fee:             method.Fees.FeeFor(req.Amount),
		Currency:        currency,
		Status:          model.StatusPending,
		Description:     req.Description,
		ExpiresAt:       now.Add(s.expiry),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if tx.Description == "" {
		tx.Description = "Order " + order.OrderNumber
	}
	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}

	payload, err := adapter.BuildPaymentPayload(ctx, tx, order, creds)
	if err != nil {
		return nil, s.failRequest(ctx, tx, err)
	}

	if len(payload.Raw) > 0 {
		s.storeProviderResponse(ctx, tx, payload)
	}

	s.audit(ctx, AuditEvent{
		Action:          AuditPaymentRequested,
		MerchantID:      tx.MerchantID,
		Provider:        tx.Provider,
		TransactionID:   tx.TransactionID,
		PaymentMethodID: tx.PaymentMethodID,
		ToStatus:        tx.Status,
		Amount:          tx.Amount,
		Fields:          map[string]any{"order_id": tx.OrderID, "kind": string(payload.Kind)},
	})

	return &PaymentResult{
		TransactionID: tx.TransactionID,
		Status:        string(tx.Status),
		Amount:        tx.Amount,
		Fee:           tx.Fee,
		Currency:      tx.Currency,
		Payload:       payload,
		ExpiresAt:     tx.ExpiresAt,
	}, nil
}

// checkVolume enforces the daily and monthly caps in UTC windows. Zero caps
// are unlimited.
func (s *Service) checkVolume(ctx context.Context, m *model.PaymentMethodConfig, amount decimal.Decimal, now time.Time) error {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	windows := []struct {
		name  string
		limit decimal.Decimal
		from  time.Time
		to    time.Time
	}{
		{"daily", m.Limits.DailyLimit, day, day.AddDate(0, 0, 1)},
		{"monthly", m.Limits.MonthlyLimit, month, month.AddDate(0, 1, 0)},
	}
	for _, w := range windows {
		if !w.limit.IsPositive() {
			continue
		}
		used, err := s.transactions.SumVolume(ctx, m.ID, w.from, w.to)
		if err != nil {
			return err
		}
		if used.Add(amount).GreaterThan(w.limit) {
			return fmt.Errorf("%w: %s limit %s", ErrLimitExceeded, w.name, w.limit.String())
		}
	}
	return nil
}

func (s *Service) failRequest(ctx context.Context, tx *model.Transaction, cause error) error {
	var pe *provider.Error
	if !errors.As(cause, &pe) {
		cause = &provider.Error{Provider: tx.Provider, Message: "payment request failed", Err: cause}
	}

	wctx, cancel := detached(ctx, failureWriteTimeout)
	defer cancel()

	reason := cause.Error()
	now := s.timestamp()
	ok, err := s.transactions.UpdateStatus(wctx, tx.TransactionID, model.StatusPending, model.StatusUpdate{
		Status:        model.StatusFailed,
		FailureReason: &reason,
		ProcessedAt:   &now,
		UpdatedAt:     now,
	})
	log := logger.LogContext{
		MerchantID: tx.MerchantID,
		Provider:   string(tx.Provider),
		Fields:     map[string]any{"transaction_id": tx.TransactionID},
	}
	switch {
	case err != nil:
		logger.Error("Failed to mark transaction failed", err, log)
	case !ok:
		logger.Warn("Transaction left pending state before failure was recorded", log)
	}
	logger.Error("Payment request failed", cause, log)

	s.audit(wctx, AuditEvent{
		Action:          AuditPaymentRequestFailed,
		MerchantID:      tx.MerchantID,
		Provider:        tx.Provider,
		TransactionID:   tx.TransactionID,
		PaymentMethodID: tx.PaymentMethodID,
		FromStatus:      model.StatusPending,
		ToStatus:        model.StatusFailed,
		Amount:          tx.Amount,
		Message:         reason,
	})
	return cause
}

// storeProviderResponse keeps the raw response on a still pending transaction.
func (s *Service) storeProviderResponse(ctx context.Context, tx *model.Transaction, payload *provider.Payload) {
	now := s.timestamp()
	ok, err := s.transactions.UpdateStatus(ctx, tx.TransactionID, model.StatusPending, model.StatusUpdate{
		Status:           model.StatusPending,
		ProviderResponse: payload.Raw,
		UpdatedAt:        now,
	})
	if err != nil {
		logger.Warn("Failed to store provider response", logger.LogContext{
			MerchantID: tx.MerchantID,
			Provider:   string(tx.Provider),
			Fields: map[string]any{
				"transaction_id": tx.TransactionID,
				"error":          err.Error(),
			},
		})
		return
	}
	if ok {
		tx.ProviderResponse = payload.Raw
		tx.UpdatedAt = now
	}
}
