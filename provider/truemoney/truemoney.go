// Package truemoney requests TrueMoney Wallet payments.
package truemoney

import (
	"context"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiSandboxURL    = "https://api-sandbox.truemoney.com"
	apiProductionURL = "https://api.truemoney.com"

	endpointCreateQR = "/v1/payment/qr"
)

// Provider implements provider.Adapter for TrueMoney Wallet.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates a TrueMoney adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.ProviderTrueMoney, opts)}
}

type paymentRequest struct {
	provider.StandardRequest
	PaymentMethod string `json:"paymentMethod"`
	MobileNumber  string `json:"mobileNumber,omitempty"`
	NotifyURL     string `json:"notifyUrl,omitempty"`
}

type paymentResponse struct {
	ReferenceNo string `json:"referenceNo"`
	DeeplinkURL string `json:"deeplinkUrl"`
	PaymentURL  string `json:"paymentUrl"`
	Status      string `json:"status"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderTrueMoney,
		DisplayName: "TrueMoney Wallet",
		Kind:        provider.KindDeepLink,
		Fee:         provider.DefaultFee(model.ProviderTrueMoney),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "apiKey", Required: true, Type: "string", Description: "TrueMoney API key", Example: "tmn_xxxxxxxx", MinLength: 8},
		{Key: "merchantId", Required: true, Type: "string", Description: "TrueMoney merchant id", Example: "TMN0001"},
		{Key: "callbackUrl", Required: false, Type: "url", Description: "Payment notification URL", Example: "https://pay.example.com/webhooks/truemoney"},
	}
}

func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	req := paymentRequest{
		StandardRequest: provider.NewStandardRequest(tx, creds),
		PaymentMethod:   "WALLET",
		NotifyURL:       creds.CallbackURL,
	}
	if order != nil {
		req.MobileNumber = order.Customer.Phone
	}

	var resp paymentResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiSandboxURL, apiProductionURL), endpointCreateQR),
		map[string]string{"Api-Key": creds.APIKey},
		req, &resp)
	if err != nil {
		return nil, err
	}

	url := provider.FirstNonEmpty(resp.DeeplinkURL, resp.PaymentURL)
	if url == "" {
		return nil, provider.MissingField(model.ProviderTrueMoney, "deeplinkUrl")
	}
	if resp.ReferenceNo == "" {
		return nil, provider.MissingField(model.ProviderTrueMoney, "referenceNo")
	}

	return &provider.Payload{
		Kind:        provider.KindDeepLink,
		URL:         url,
		ReferenceNo: resp.ReferenceNo,
		Status:      resp.Status,
		Raw:         raw,
	}, nil
}
