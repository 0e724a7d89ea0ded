package payment

import (
	"context"
	"time"

	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

// AuditAction names an audited state change.
type AuditAction string

const (
	AuditMethodRegistered     AuditAction = "method.registered"
	AuditMethodUpdated        AuditAction = "method.updated"
	AuditPaymentRequested     AuditAction = "payment.requested"
	AuditPaymentRequestFailed AuditAction = "payment.request_failed"
	AuditCallbackApplied      AuditAction = "payment.callback_applied"
	AuditRefunded             AuditAction = "payment.refunded"
	AuditCancelled            AuditAction = "payment.cancelled"
	AuditSettlementCreated    AuditAction = "settlement.created"
)

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action          AuditAction
	MerchantID      string
	Provider        model.ProviderType
	TransactionID   string
	PaymentMethodID string
	FromStatus      model.TransactionStatus
	ToStatus        model.TransactionStatus
	Amount          decimal.Decimal
	Message         string
	Fields          map[string]any
	At              time.Time
}

// Auditor stores audit events.
type Auditor interface {
	Record(ctx context.Context, e AuditEvent) error
}

// LogAuditor writes audit events to the system log.
type LogAuditor struct{}

func (LogAuditor) Record(_ context.Context, e AuditEvent) error {
	fields := map[string]any{"action": string(e.Action)}
	for k, v := range e.Fields {
		fields[k] = v
	}
	if e.TransactionID != "" {
		fields["transaction_id"] = e.TransactionID
	}
	if e.PaymentMethodID != "" {
		fields["payment_method_id"] = e.PaymentMethodID
	}
	if e.ToStatus != "" {
		fields["from"] = string(e.FromStatus)
		fields["to"] = string(e.ToStatus)
	}
	if !e.Amount.IsZero() {
		fields["amount"] = e.Amount.StringFixed(2)
	}
	msg := e.Message
	if msg == "" {
		msg = "audit"
	}
	logger.Info(msg, logger.LogContext{
		MerchantID: e.MerchantID,
		Provider:   string(e.Provider),
		Fields:     fields,
	})
	return nil
}

// audit records e and only logs when the auditor fails.
func (s *Service) audit(ctx context.Context, e AuditEvent) {
	if e.At.IsZero() {
		e.At = s.now()
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		logger.Warn("Failed to record audit event", logger.LogContext{
			MerchantID: e.MerchantID,
			Provider:   string(e.Provider),
			Fields: map[string]any{
				"action": string(e.Action),
				"error":  err.Error(),
			},
		})
	}
}
