// Package scbeasy requests SCB Easy app payments.
package scbeasy

import (
	"context"

	"github.com/google/uuid"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiSandboxURL    = "https://api-sandbox.partners.scb"
	apiProductionURL = "https://api.scbeasy.com"

	endpointCreateQR = "/v1/payment/qr"
)

// Provider implements provider.Adapter for SCB Easy.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates an SCB Easy adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.ProviderSCBEasy, opts)}
}

type paymentRequest struct {
	provider.StandardRequest
	BillerID   string `json:"billerId,omitempty"`
	Ref1       string `json:"ref1"`
	Ref2       string `json:"ref2,omitempty"`
	ReturnURL  string `json:"returnUrl,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
}

type paymentResponse struct {
	ReferenceNo string `json:"referenceNo"`
	DeeplinkURL string `json:"deeplinkUrl"`
	PaymentURL  string `json:"paymentUrl"`
	Status      string `json:"status"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderSCBEasy,
		DisplayName: "SCB Easy",
		Kind:        provider.KindDeepLink,
		Fee:         provider.DefaultFee(model.ProviderSCBEasy),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "apiKey", Required: true, Type: "string", Description: "SCB application key", Example: "l7xx0000000000", MinLength: 8},
		{Key: "merchantId", Required: true, Type: "string", Description: "SCB biller id", Example: "010556xxxxxxx"},
		{Key: "returnUrl", Required: false, Type: "url", Description: "URL the app returns to", Example: "https://shop.example.com/thanks"},
	}
}

func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	req := paymentRequest{
		StandardRequest: provider.NewStandardRequest(tx, creds),
		BillerID:        creds.MerchantID,
		Ref1:            tx.TransactionID,
		ReturnURL:       creds.ReturnURL,
	}
	if order != nil {
		req.Ref2 = order.OrderNumber
		req.CustomerID = order.Customer.ID
	}

	headers := map[string]string{
		"Api-Key":         creds.APIKey,
		"resourceOwnerId": creds.APIKey,
		"requestUId":      uuid.NewString(),
		"accept-language": "EN",
	}

	var resp paymentResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiSandboxURL, apiProductionURL), endpointCreateQR),
		headers, req, &resp)
	if err != nil {
		return nil, err
	}

	url := provider.FirstNonEmpty(resp.DeeplinkURL, resp.PaymentURL)
	if url == "" {
		return nil, provider.MissingField(model.ProviderSCBEasy, "deeplinkUrl")
	}
	if resp.ReferenceNo == "" {
		return nil, provider.MissingField(model.ProviderSCBEasy, "referenceNo")
	}

	return &provider.Payload{
		Kind:        provider.KindDeepLink,
		URL:         url,
		ReferenceNo: resp.ReferenceNo,
		Status:      resp.Status,
		Raw:         raw,
	}, nil
}
