// Package kbank requests QR payments from the Kasikornbank open API.
package kbank

import (
	"context"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiSandboxURL    = "https://openapi-sandbox.kasikornbank.com"
	apiProductionURL = "https://openapi.kasikornbank.com"

	endpointCreateQR = "/payment/v1/qr"
)

// Provider implements provider.Adapter for KBank.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates a KBank adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.ProviderKBank, opts)}
}

type qrRequest struct {
	provider.StandardRequest
	PartnerTxnUID string `json:"partnerTxnUid"`
	TerminalID    string `json:"terminalId,omitempty"`
	CallbackURL   string `json:"callbackUrl,omitempty"`
}

type qrResponse struct {
	ReferenceNo string `json:"referenceNo"`
	PaymentURL  string `json:"paymentUrl"`
	QRImageURL  string `json:"qrImageUrl"`
	Status      string `json:"status"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderKBank,
		DisplayName: "Kasikornbank (K PLUS)",
		Kind:        provider.KindRedirect,
		Fee:         provider.DefaultFee(model.ProviderKBank),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "apiKey", Required: true, Type: "string", Description: "KBank API key", Example: "kb_xxxxxxxx", MinLength: 8},
		{Key: "merchantId", Required: true, Type: "string", Description: "KBank merchant id", Example: "KB102345"},
		{Key: "terminalId", Required: false, Type: "string", Description: "Terminal id issued by KBank", Example: "T001"},
		{Key: "callbackUrl", Required: false, Type: "url", Description: "Payment notification URL", Example: "https://pay.example.com/webhooks/kbank"},
	}
}

func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, _ *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	req := qrRequest{
		StandardRequest: provider.NewStandardRequest(tx, creds),
		PartnerTxnUID:   tx.TransactionID,
		TerminalID:      creds.TerminalID,
		CallbackURL:     creds.CallbackURL,
	}

	var resp qrResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiSandboxURL, apiProductionURL), endpointCreateQR),
		map[string]string{"x-api-key": creds.APIKey},
		req, &resp)
	if err != nil {
		return nil, err
	}

	url := provider.FirstNonEmpty(resp.PaymentURL, resp.QRImageURL)
	if url == "" {
		return nil, provider.MissingField(model.ProviderKBank, "paymentUrl")
	}
	if resp.ReferenceNo == "" {
		return nil, provider.MissingField(model.ProviderKBank, "referenceNo")
	}

	return &provider.Payload{
		Kind:        provider.KindRedirect,
		URL:         url,
		ReferenceNo: resp.ReferenceNo,
		Status:      resp.Status,
		Raw:         raw,
	}, nil
}
