package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/signature"
)

var (
	transactionIDKeys = []string{"transactionId", "transaction_id", "reference", "referenceNo", "orderId"}
	statusKeys        = []string{"status", "paymentStatus", "result"}
)

// WebhookInput is an inbound provider notification as received.
type WebhookInput struct {
	Provider  string
	RawBody   []byte
	Signature string
	Timestamp string
}

// WebhookResult reports what a webhook did.
type WebhookResult struct {
	Verified    bool                    `json:"verified"`
	Status      model.TransactionStatus `json:"status,omitempty"`
	Applied     bool                    `json:"applied"`
	Transaction *model.Transaction      `json:"transaction,omitempty"`
}

// HandleWebhook verifies a provider notification over its raw bytes, extracts
// the transaction id and status, and applies the callback.
func (s *Service) HandleWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	p := model.ProviderType(signature.Normalize(in.Provider))
	if !p.Valid() {
		return &WebhookResult{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, in.Provider)
	}

	if err := s.verifier.Check(string(p), in.RawBody, in.Signature, in.Timestamp); err != nil {
		logger.Warn("Webhook signature rejected", logger.LogContext{
			Provider: string(p),
			Fields:   map[string]any{"error": err.Error()},
		})
		return &WebhookResult{}, err
	}

	result := &WebhookResult{Verified: true}
	txID, status, err := parseCallback(in.RawBody)
	if err != nil {
		return result, err
	}
	result.Status = MapStatus(status)

	tx, applied, err := s.processCallback(ctx, p, txID, status, json.RawMessage(in.RawBody))
	if err != nil {
		return result, err
	}
	result.Transaction = tx
	result.Applied = applied
	return result, nil
}

// ProcessPaymentCallback applies a provider status to a transaction. Repeated
// or out of order deliveries for a terminal transaction return it unchanged;
// side effects of completion run once.
func (s *Service) ProcessPaymentCallback(ctx context.Context, transactionID, providerStatus string, raw json.RawMessage) (*model.Transaction, error) {
	tx, _, err := s.processCallback(ctx, "", transactionID, providerStatus, raw)
	return tx, err
}

func (s *Service) processCallback(ctx context.Context, p model.ProviderType, transactionID, providerStatus string, raw json.RawMessage) (*model.Transaction, bool, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, false, fmt.Errorf("%w: missing transaction id", ErrInvalidCallback)
	}
	if strings.TrimSpace(providerStatus) == "" {
		return nil, false, fmt.Errorf("%w: missing status", ErrInvalidCallback)
	}

	unlock, err := s.locker.Lock(ctx, "txn:"+transactionID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	tx, err := s.transactions.FindByID(ctx, transactionID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, false, ErrTransactionNotFound
	} else if err != nil {
		return nil, false, err
	}
	if p != "" && tx.Provider != p {
		return nil, false, fmt.Errorf("%w: transaction belongs to %s", ErrInvalidCallback, tx.Provider)
	}

	target := MapStatus(providerStatus)
	if target == tx.Status || tx.Status.Terminal() {
		return tx, false, nil
	}
	if !model.CanTransition(model.ActorProvider, tx.Status, target) {
		return nil, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tx.Status, target)
	}

	now := s.timestamp()
	update := model.StatusUpdate{
		Status:      target,
		ProcessedAt: &now,
		UpdatedAt:   now,
	}
	if len(raw) > 0 {
		update.ProviderResponse = raw
	}
	if target == model.StatusCompleted {
		update.CompletedAt = &now
	}
	if target == model.StatusFailed {
		reason := "provider reported " + strings.ToLower(strings.TrimSpace(providerStatus))
		update.FailureReason = &reason
	}

	from := tx.Status
	won, err := s.transactions.UpdateStatus(ctx, tx.TransactionID, from, update)
	if err != nil {
		return nil, false, err
	}
	if !won {
		// Another delivery got there first.
		current, err := s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}
	update.Apply(tx)

	if target == model.StatusCompleted {
		s.completeSideEffects(ctx, tx, now)
	}

	s.audit(ctx, AuditEvent{
		Action:          AuditCallbackApplied,
		MerchantID:      tx.MerchantID,
		Provider:        tx.Provider,
		TransactionID:   tx.TransactionID,
		PaymentMethodID: tx.PaymentMethodID,
		FromStatus:      from,
		ToStatus:        target,
		Amount:          tx.Amount,
		Fields:          map[string]any{"provider_status": providerStatus},
	})
	return tx, true, nil
}

// completeSideEffects confirms the order and records usage. It runs only for
// the delivery that won the conditional update, so it cannot repeat.
func (s *Service) completeSideEffects(ctx context.Context, tx *model.Transaction, now time.Time) {
	wctx, cancel := detached(ctx, failureWriteTimeout)
	defer cancel()

	log := logger.LogContext{
		MerchantID: tx.MerchantID,
		Provider:   string(tx.Provider),
		Fields:     map[string]any{"transaction_id": tx.TransactionID},
	}
	if err := s.orders.SetStatus(wctx, tx.OrderID, model.OrderConfirmed, now); err != nil {
		logger.Error("Failed to confirm order", err, log)
	}
	if err := s.methods.RecordUsage(wctx, tx.PaymentMethodID, tx.Amount, now); err != nil {
		logger.Error("Failed to record payment method usage", err, log)
	}
}

// parseCallback pulls the transaction id and status out of a JSON body. Both
// are searched at the top level, under data and data.object, and in the
// metadata of each.
func parseCallback(body []byte) (string, string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return "", "", fmt.Errorf("%w: body is not a JSON object", ErrInvalidCallback)
	}

	var scopes []map[string]any
	add := func(m map[string]any) {
		scopes = append(scopes, m)
		if meta, ok := m["metadata"].(map[string]any); ok {
			scopes = append(scopes, meta)
		}
	}
	add(root)
	if data, ok := root["data"].(map[string]any); ok {
		add(data)
		if obj, ok := data["object"].(map[string]any); ok {
			add(obj)
		}
	}

	txID := lookup(scopes, transactionIDKeys)
	status := lookup(scopes, statusKeys)
	if txID == "" {
		return "", "", fmt.Errorf("%w: missing transaction id", ErrInvalidCallback)
	}
	if status == "" {
		return "", "", fmt.Errorf("%w: missing status", ErrInvalidCallback)
	}
	return txID, status, nil
}

func lookup(scopes []map[string]any, keys []string) string {
	for _, scope := range scopes {
		for _, key := range keys {
			switch v := scope[key].(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			case json.Number:
				return v.String()
			}
		}
	}
	return ""
}
