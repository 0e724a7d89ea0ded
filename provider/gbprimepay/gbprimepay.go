// Package gbprimepay requests QR payments from GB Prime Pay.
package gbprimepay

import (
	"context"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiSandboxURL    = "https://api.globalprimepay.com"
	apiProductionURL = "https://api.gbprimepay.com"

	endpointQRCode = "/v3/qrcode"

	resultSuccess = "00"
)

// Provider implements provider.Adapter for GB Prime Pay.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates a GB Prime Pay adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.ProviderGBPrimePay, opts)}
}

type qrRequest struct {
	provider.StandardRequest
	BackgroundURL string `json:"backgroundUrl,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerTelephone,omitempty"`
}

type qrResponse struct {
	ReferenceNo string `json:"referenceNo"`
	QRImageURL  string `json:"qrImageUrl"`
	PaymentURL  string `json:"paymentUrl"`
	ResultCode  string `json:"resultCode"`
	Status      string `json:"status"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderGBPrimePay,
		DisplayName: "GB Prime Pay",
		Kind:        provider.KindRedirect,
		Fee:         provider.DefaultFee(model.ProviderGBPrimePay),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "apiKey", Required: true, Type: "string", Description: "GB Prime Pay token", Example: "gbp_xxxxxxxx", MinLength: 8},
		{Key: "merchantId", Required: false, Type: "string", Description: "GB Prime Pay merchant id", Example: "GBP001"},
		{Key: "callbackUrl", Required: false, Type: "url", Description: "Background notification URL", Example: "https://pay.example.com/webhooks/gbprimepay"},
	}
}

func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	req := qrRequest{
		StandardRequest: provider.NewStandardRequest(tx, creds),
		BackgroundURL:   creds.CallbackURL,
	}
	if order != nil {
		req.CustomerName = order.Customer.Name
		req.CustomerEmail = order.Customer.Email
		req.CustomerPhone = order.Customer.Phone
	}

	var resp qrResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiSandboxURL, apiProductionURL), endpointQRCode),
		map[string]string{"Api-Key": creds.APIKey},
		req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.ResultCode != "" && resp.ResultCode != resultSuccess {
		return nil, provider.Errorf(model.ProviderGBPrimePay, "result code %s", resp.ResultCode)
	}

	url := provider.FirstNonEmpty(resp.QRImageURL, resp.PaymentURL)
	if url == "" {
		return nil, provider.MissingField(model.ProviderGBPrimePay, "qrImageUrl")
	}
	if resp.ReferenceNo == "" {
		return nil, provider.MissingField(model.ProviderGBPrimePay, "referenceNo")
	}

	return &provider.Payload{
		Kind:        provider.KindRedirect,
		URL:         url,
		ReferenceNo: resp.ReferenceNo,
		Status:      resp.Status,
		Raw:         raw,
	}, nil
}
