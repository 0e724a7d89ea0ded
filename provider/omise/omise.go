// Package omise creates PromptPay charges through Omise.
//
// Omise hosts the QR image itself and does not return the EMV string, so QR
// payloads from this adapter carry QRImageData as the image download URI and
// leave QRRawString empty.
package omise

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

const (
	apiURL = "https://api.omise.co"

	endpointCharges = "/charges"

	statusFailed = "failed"
)

// Provider implements provider.Adapter for Omise.
type Provider struct {
	client *provider.HTTPClient
}

// NewProvider creates an Omise adapter.
func NewProvider(opts provider.Options) provider.Adapter {
	return &Provider{client: provider.NewClientFor(model.ProviderOmise, opts)}
}

type source struct {
	Type string `json:"type"`
}

// chargeRequest amounts are in satang.
type chargeRequest struct {
	MerchantID  string            `json:"merchantId,omitempty"`
	ReferenceNo string            `json:"referenceNo"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	ReturnURI   string            `json:"return_uri,omitempty"`
	Source      source            `json:"source"`
	Metadata    map[string]string `json:"metadata"`
}

type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	AuthorizeURI   string `json:"authorize_uri"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
	Source         struct {
		ScannableCode struct {
			Image struct {
				DownloadURI string `json:"download_uri"`
			} `json:"image"`
		} `json:"scannable_code"`
	} `json:"source"`
}

func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Type:        model.ProviderOmise,
		DisplayName: "Omise",
		Kind:        provider.KindQRCode,
		Fee:         provider.DefaultFee(model.ProviderOmise),
	}
}

func (p *Provider) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "secretKey", Required: true, Type: "string", Description: "Omise secret key", Example: "skey_test_xxxxxxxx", Pattern: `^skey_`},
		{Key: "returnUrl", Required: false, Type: "url", Description: "Return URI after authorization", Example: "https://shop.example.com/thanks"},
	}
}

// BuildPaymentPayload creates a PromptPay charge. The scannable code is
// returned as a QR payload, an authorize URI as a redirect.
func (p *Provider) BuildPaymentPayload(ctx context.Context, tx *model.Transaction, order *model.Order, creds provider.Credentials) (*provider.Payload, error) {
	std := provider.NewStandardRequest(tx, creds)
	req := chargeRequest{
		MerchantID:  creds.MerchantID,
		ReferenceNo: tx.TransactionID,
		Amount:      provider.MinorUnits(tx.Amount),
		Currency:    strings.ToLower(std.Currency),
		Description: std.Description,
		ReturnURI:   creds.ReturnURL,
		Source:      source{Type: "promptpay"},
		Metadata: map[string]string{
			"transactionId": tx.TransactionID,
			"orderId":       tx.OrderID,
		},
	}

	auth := base64.StdEncoding.EncodeToString([]byte(creds.SecretKey + ":"))

	var resp chargeResponse
	raw, err := p.client.PostJSON(ctx,
		provider.JoinURL(creds.BaseURL(apiURL, apiURL), endpointCharges),
		map[string]string{"Authorization": "Basic " + auth},
		req, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status == statusFailed {
		return nil, provider.Errorf(model.ProviderOmise, "charge failed: %s %s", resp.FailureCode, resp.FailureMessage)
	}
	if resp.ID == "" {
		return nil, provider.MissingField(model.ProviderOmise, "id")
	}

	payload := &provider.Payload{
		ReferenceNo: resp.ID,
		Status:      resp.Status,
		Raw:         raw,
	}
	switch image := resp.Source.ScannableCode.Image.DownloadURI; {
	case image != "":
		payload.Kind = provider.KindQRCode
		// A URI, not base64 image data.
		payload.QRImageData = image
	case resp.AuthorizeURI != "":
		payload.Kind = provider.KindRedirect
		payload.URL = resp.AuthorizeURI
	default:
		return nil, provider.MissingField(model.ProviderOmise, "source.scannable_code")
	}
	return payload, nil
}
