// Package twoc2p requests hosted payment pages from 2C2P.
package twoc2p

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiSandboxURL    = "https://sandbox-pgw.2c2p.com"
	apiProductionURL = "https://pgw.2c2p.com"

	endpointPaymentToken = "/payment/4.3/paymentToken"

	respSuccess = "0000"
)

// Provider implements provider.Adapter for 2C2P.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates a 2C2P adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.Provider2C2P, opts)}
}

type tokenRequest struct {
	provider.StandardRequest
	InvoiceNo         string   `json:"invoiceNo"`
	PaymentChannel    []string `json:"paymentChannel"`
	BackendReturnURL  string   `json:"backendReturnUrl,omitempty"`
	FrontendReturnURL string   `json:"frontendReturnUrl,omitempty"`
}

type tokenResponse struct {
	PaymentToken  string `json:"paymentToken"`
	WebPaymentURL string `json:"webPaymentUrl"`
	RespCode      string `json:"respCode"`
	RespDesc      string `json:"respDesc"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.Provider2C2P,
		DisplayName: "2C2P",
		Kind:        provider.KindRedirect,
		Fee:         provider.DefaultFee(model.Provider2C2P),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "merchantId", Required: true, Type: "string", Description: "2C2P merchant id", Example: "JT01"},
		{Key: "secretKey", Required: true, Type: "string", Description: "2C2P secret key used to sign requests", Example: "ECC4E54DBA738857B84A7EBC6B5DC7187B8DA68750E88AB53AAA41F548D6F2D9", MinLength: 16},
		{Key: "callbackUrl", Required: false, Type: "url", Description: "Backend notification URL", Example: "https://pay.example.com/webhooks/2c2p"},
		{Key: "returnUrl", Required: false, Type: "url", Description: "Frontend return URL", Example: "https://shop.example.com/thanks"},
	}
}

func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, _ *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	req := tokenRequest{
		StandardRequest:   provider.NewStandardRequest(tx, creds),
		InvoiceNo:         tx.TransactionID,
		PaymentChannel:    []string{"PPQR"},
		BackendReturnURL:  creds.CallbackURL,
		FrontendReturnURL: creds.ReturnURL,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &provider.Error{Provider: model.Provider2C2P, Message: "marshal request", Err: err}
	}

	var resp tokenResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiSandboxURL, apiProductionURL), endpointPaymentToken),
		map[string]string{"signature": Sign(creds.SecretKey, body)},
		body, &resp)
	if err != nil {
		return nil, err
	}

	if resp.RespCode != respSuccess {
		return nil, provider.Errorf(model.Provider2C2P, "respCode %s: %s", resp.RespCode, resp.RespDesc)
	}
	if resp.WebPaymentURL == "" {
		return nil, provider.MissingField(model.Provider2C2P, "webPaymentUrl")
	}
	if resp.PaymentToken == "" {
		return nil, provider.MissingField(model.Provider2C2P, "paymentToken")
	}

	return &provider.Payload{
		Kind:        provider.KindRedirect,
		URL:         resp.WebPaymentURL,
		ReferenceNo: resp.PaymentToken,
		Status:      string(model.StatusPending),
		Raw:         raw,
	}, nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
