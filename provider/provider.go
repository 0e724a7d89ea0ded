package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

// Kind tells the caller how to present a payment payload to the payer.
type Kind string

const (
	KindQRCode   Kind = "qr_code"
	KindRedirect Kind = "redirect"
	KindDeepLink Kind = "deep_link"
)

// DefaultTimeout bounds every outbound provider call.
const DefaultTimeout = 10 * time.Second

// Payload is the normalized result of asking a provider for a payment.
// QR payloads carry QRImageData and QRRawString, the others carry URL.
// QRImageData is a PNG data URI, or a hosted image URL when the provider
// renders the code itself; QRRawString is then empty.
type Payload struct {
	Kind        Kind   `json:"kind"`
	QRImageData string `json:"qrImageData,omitempty"`
	QRRawString string `json:"qrRawString,omitempty"`
	URL         string `json:"url,omitempty"`
	ReferenceNo string `json:"referenceNo,omitempty"`
	Status      string `json:"status,omitempty"`

	// Raw is the provider response kept on the transaction for audit.
	Raw json.RawMessage `json:"-"`
}

// Credentials is the configuration object of one payment method. The fields
// tagged apiKey, secretKey, privateKey and password are encrypted at rest.
type Credentials struct {
	APIKey      string            `json:"apiKey,omitempty"`
	SecretKey   string            `json:"secretKey,omitempty"`
	PrivateKey  string            `json:"privateKey,omitempty"`
	Password    string            `json:"password,omitempty"`
	MerchantID  string            `json:"merchantId,omitempty"`
	TerminalID  string            `json:"terminalId,omitempty"`
	PromptPayID string            `json:"promptPayId,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	CallbackURL string            `json:"callbackUrl,omitempty"`
	ReturnURL   string            `json:"returnUrl,omitempty"`
	Sandbox     bool              `json:"sandbox"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Field returns a credential value by its JSON key.
func (c Credentials) Field(key string) string {
	switch key {
	case "apiKey":
		return c.APIKey
	case "secretKey":
		return c.SecretKey
	case "privateKey":
		return c.PrivateKey
	case "password":
		return c.Password
	case "merchantId":
		return c.MerchantID
	case "terminalId":
		return c.TerminalID
	case "promptPayId":
		return c.PromptPayID
	case "endpoint":
		return c.Endpoint
	case "callbackUrl":
		return c.CallbackURL
	case "returnUrl":
		return c.ReturnURL
	}
	return c.Extra[key]
}

// BaseURL picks the explicit endpoint override, then the sandbox or
// production host.
func (c Credentials) BaseURL(sandboxURL, productionURL string) string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	if c.Sandbox {
		return sandboxURL
	}
	return productionURL
}

// ConfigField describes a credential field an adapter needs.
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "url", "digits"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// Metadata is the static description of an adapter.
type Metadata struct {
	Type        model.ProviderType `json:"type"`
	DisplayName string             `json:"displayName"`
	Kind        Kind               `json:"kind"`
	Fee         model.FeeSchedule  `json:"defaultFee"`
}

// Adapter translates the normalized payment request into one provider's API.
type Adapter interface {
	Metadata() Metadata
	RequiredConfig() []ConfigField
	BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds Credentials) (*Payload, error)
}

// Options are handed to every adapter factory.
type Options struct {
	Timeout time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Factory builds an adapter.
type Factory func(opts Options) Adapter

// StandardRequest is the body shared by the keyed HTTP providers.
type StandardRequest struct {
	MerchantID  string      `json:"merchantId"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	ReferenceNo string      `json:"referenceNo"`
	Description string      `json:"description"`
}

// NewStandardRequest fills the shared body from a transaction.
func NewStandardRequest(tx *model.Transaction, creds Credentials) StandardRequest {
	currency := tx.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	description := tx.Description
	if description == "" {
		description = "Payment " + tx.TransactionID
	}
	return StandardRequest{
		MerchantID:  creds.MerchantID,
		Amount:      json.Number(tx.Amount.StringFixed(2)),
		Currency:    currency,
		ReferenceNo: tx.TransactionID,
		Description: description,
	}
}

// MinorUnits converts a baht amount into satang.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FirstNonEmpty returns the first non-empty value.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
