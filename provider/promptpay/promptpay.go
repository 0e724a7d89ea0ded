// Package promptpay builds PromptPay QR payments locally, without any
// network call.
package promptpay

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// Provider implements provider.Adapter for PromptPay.
type Provider struct{}

// NewProvider creates a PromptPay adapter.
func NewProvider(provider.Options) provider.Adapter {
	return &Provider{}
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderPromptPay,
		DisplayName: "PromptPay",
		Kind:        provider.KindQRCode,
		Fee:         provider.DefaultFee(model.ProviderPromptPay),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "promptPayId",
			Required:    false,
			Type:        "digits",
			Description: "Merchant PromptPay id, used when the order carries none",
			Example:     "0812345678",
			MinLength:   10,
			MaxLength:   20,
		},
	}
}

// BuildPaymentPayload encodes the order's PromptPay id, or the merchant's
// configured one, with the transaction amount and renders it as a PNG.
func (p *Provider) BuildPaymentPayload(_ context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	id := creds.PromptPayID
	if order != nil && order.Thai.PromptPayID != "" {
		id = order.Thai.PromptPayID
	}
	if id == "" {
		return nil, ErrInvalidID
	}

	raw, err := Payload(id, tx.Amount)
	if err != nil {
		return nil, err
	}

	image, err := Render(raw)
	if err != nil {
		return nil, err
	}

	record, _ := json.Marshal(map[string]string{
		"qrRawString": raw,
		"amount":      tx.Amount.StringFixed(2),
	})

	return &provider.Payload{
		Kind:        provider.KindQRCode,
		QRRawString: raw,
		QRImageData: image,
		ReferenceNo: tx.TransactionID,
		Status:      string(model.StatusPending),
		Raw:         record,
	}, nil
}

// Render encodes content as a PNG data URL.
func Render(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
