// Package stripe collects PromptPay payments through Stripe PaymentIntents.
package stripe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/mstgnz/thaipay/provider/promptpay"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const paymentMethodPromptPay = "promptpay"

// Provider implements provider.Adapter for Stripe PromptPay.
type Provider struct {
	httpClient *http.Client
}

// NewProvider creates a Stripe adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}
	return &Provider{httpClient: &http.Client{Timeout: timeout}}
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderStripe,
		DisplayName: "Stripe PromptPay",
		Kind:        provider.KindQRCode,
		Fee:         provider.DefaultFee(model.ProviderStripe),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "secretKey", Required: true, Type: "string", Description: "Stripe secret key", Example: "sk_test_xxxxxxxx", Pattern: `^(sk|rk)_`},
		{Key: "endpoint", Required: false, Type: "url", Description: "API base URL override", Example: "https://api.stripe.com"},
	}
}

func (p *Provider) api(creds provider.Credentials) *client.API {
	cfg := &stripego.BackendConfig{
		HTTPClient:        p.httpClient,
		MaxNetworkRetries: stripego.Int64(0),
	}
	if creds.Endpoint != "" {
		cfg.URL = stripego.String(strings.TrimRight(creds.Endpoint, "/"))
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, cfg)
	return client.New(creds.SecretKey, &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
}

// BuildPaymentPayload confirms a PromptPay PaymentIntent and renders the QR
// data Stripe returns in its next action.
func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	email := creds.Extra["billingEmail"]
	if order != nil && order.Customer.Email != "" {
		email = order.Customer.Email
	}
	if email == "" {
		return nil, provider.Errorf(model.ProviderStripe, "customer email is required for promptpay")
	}

	std := provider.NewStandardRequest(tx, creds)
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(provider.MinorUnits(tx.Amount)),
		Currency:           stripego.String(strings.ToLower(std.Currency)),
		Description:        stripego.String(std.Description),
		PaymentMethodTypes: stripego.StringSlice([]string{paymentMethodPromptPay}),
		PaymentMethodData: &stripego.PaymentIntentPaymentMethodDataParams{
			Type: stripego.String(paymentMethodPromptPay),
			BillingDetails: &stripego.PaymentIntentPaymentMethodDataBillingDetailsParams{
				Email: stripego.String(email),
			},
		},
		Confirm: stripego.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey(tx.TransactionID)
	params.AddMetadata("transactionId", tx.TransactionID)
	params.AddMetadata("orderId", tx.OrderID)

	pi, err := p.api(creds).PaymentIntents.New(params)
	if err != nil {
		return nil, wrapError(err)
	}

	if pi.NextAction == nil || pi.NextAction.PromptPayDisplayQRCode == nil || pi.NextAction.PromptPayDisplayQRCode.Data == "" {
		return nil, provider.MissingField(model.ProviderStripe, "next_action.promptpay_display_qr_code")
	}
	qr := pi.NextAction.PromptPayDisplayQRCode

	image, err := promptpay.Render(qr.Data)
	if err != nil {
		return nil, &provider.Error{Provider: model.ProviderStripe, Message: "render qr", Err: err}
	}

	payload := &provider.Payload{
		Kind:        provider.KindQRCode,
		QRRawString: qr.Data,
		QRImageData: image,
		URL:         qr.HostedInstructionsURL,
		ReferenceNo: pi.ID,
		Status:      string(pi.Status),
	}
	if pi.LastResponse != nil {
		payload.Raw = pi.LastResponse.RawJSON
	}
	return payload, nil
}

func wrapError(err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) {
		return &provider.Error{
			Provider:   model.ProviderStripe,
			StatusCode: serr.HTTPStatusCode,
			Message:    serr.Msg,
			Err:        err,
		}
	}
	return &provider.Error{Provider: model.ProviderStripe, Message: "request failed", Err: err}
}
