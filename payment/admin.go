package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
)

// GetTransaction returns a transaction by id.
func (s *Service) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	return tx, err
}

// Refund moves a completed transaction to refunded and marks its order
// refunded. Usage counters are left as they are.
func (s *Service) Refund(ctx context.Context, transactionID, reason string) (*model.Transaction, error) {
	tx, err := s.adminTransition(ctx, transactionID, model.StatusRefunded, reason)
	if err != nil {
		return nil, err
	}
	wctx, cancel := detached(ctx, failureWriteTimeout)
	defer cancel()
	if err := s.orders.SetStatus(wctx, tx.OrderID, model.OrderRefunded, s.timestamp()); err != nil {
		logger.Error("Failed to mark order refunded", err, logger.LogContext{
			MerchantID: tx.MerchantID,
			Provider:   string(tx.Provider),
			Fields:     map[string]any{"transaction_id": tx.TransactionID, "order_id": tx.OrderID},
		})
	}
	return tx, nil
}

// Cancel moves a pending or processing transaction to cancelled.
func (s *Service) Cancel(ctx context.Context, transactionID, reason string) (*model.Transaction, error) {
	return s.adminTransition(ctx, transactionID, model.StatusCancelled, reason)
}

func (s *Service) adminTransition(ctx context.Context, transactionID string, target model.TransactionStatus, reason string) (*model.Transaction, error) {
	unlock, err := s.locker.Lock(ctx, "txn:"+transactionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(model.ActorAdmin, tx.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tx.Status, target)
	}

	now := s.timestamp()
	update := model.StatusUpdate{Status: target, UpdatedAt: now}
	if reason = strings.TrimSpace(reason); reason != "" && target == model.StatusCancelled {
		update.FailureReason = &reason
	}

	from := tx.Status
	won, err := s.transactions.UpdateStatus(ctx, tx.TransactionID, from, update)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: transaction changed concurrently", ErrInvalidTransition)
	}
	update.Apply(tx)

	action := AuditCancelled
	if target == model.StatusRefunded {
		action = AuditRefunded
	}
	s.audit(ctx, AuditEvent{
		Action:          action,
		MerchantID:      tx.MerchantID,
		Provider:        tx.Provider,
		TransactionID:   tx.TransactionID,
		PaymentMethodID: tx.PaymentMethodID,
		FromStatus:      from,
		ToStatus:        target,
		Amount:          tx.Amount,
		Message:         reason,
	})
	return tx, nil
}
