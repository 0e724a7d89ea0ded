package opensearch

import (
	"context"

	"github.com/mstgnz/thaipay/payment"
)

// AuditLogger writes payment audit events to monthly indices.
type AuditLogger struct {
	client *Client
}

// NewAuditLogger creates an AuditLogger on client.
func NewAuditLogger(client *Client) *AuditLogger {
	return &AuditLogger{client: client}
}

type auditDoc struct {
	Timestamp       string         `json:"timestamp"`
	Action          string         `json:"action"`
	MerchantID      string         `json:"merchant_id,omitempty"`
	Provider        string         `json:"provider,omitempty"`
	TransactionID   string         `json:"transaction_id,omitempty"`
	PaymentMethodID string         `json:"payment_method_id,omitempty"`
	FromStatus      string         `json:"from_status,omitempty"`
	ToStatus        string         `json:"to_status,omitempty"`
	Amount          string         `json:"amount,omitempty"`
	Message         string         `json:"message,omitempty"`
	Fields          map[string]any `json:"fields,omitempty"`
}

// Record implements payment.Auditor.
func (a *AuditLogger) Record(ctx context.Context, e payment.AuditEvent) error {
	doc := auditDoc{
		Timestamp:       e.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Action:          string(e.Action),
		MerchantID:      e.MerchantID,
		Provider:        string(e.Provider),
		TransactionID:   e.TransactionID,
		PaymentMethodID: e.PaymentMethodID,
		FromStatus:      string(e.FromStatus),
		ToStatus:        string(e.ToStatus),
		Message:         e.Message,
		Fields:          e.Fields,
	}
	if !e.Amount.IsZero() {
		doc.Amount = e.Amount.StringFixed(2)
	}
	return a.client.Index(ctx, AuditIndexName(e.At), doc)
}
