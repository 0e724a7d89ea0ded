package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_PostJSON(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"referenceNo":"R1"}`))
	}))
	defer server.Close()

	client := NewClientFor(model.ProviderKBank, Options{})
	tx := &model.Transaction{TransactionID: "TXN-1", Amount: decimal.NewFromInt(10)}

	var out struct {
		ReferenceNo string `json:"referenceNo"`
	}
	raw, err := client.PostJSON(context.Background(), JoinURL(server.URL+"/", "/qr"),
		map[string]string{"x-api-key": "secret"}, NewStandardRequest(tx, Credentials{MerchantID: "M1"}), &out)
	require.NoError(t, err)
	assert.Equal(t, "R1", out.ReferenceNo)
	assert.JSONEq(t, `{"referenceNo":"R1"}`, string(raw))
	assert.JSONEq(t, `{"merchantId":"M1","amount":10.00,"currency":"THB","referenceNo":"TXN-1","description":"Payment TXN-1"}`, gotBody)
}

func TestHTTPClient_RawBodyIsSentVerbatim(t *testing.T) {
	body := []byte(`{"b":1,"a":2}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, string(body), string(got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClientFor(model.Provider2C2P, Options{}).SendJSON(context.Background(), &HTTPRequest{URL: server.URL, Body: body})
	require.NoError(t, err)
}

func TestHTTPClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer server.Close()

	client := NewClientFor(model.ProviderSCBEasy, Options{})
	_, err := client.SendJSON(context.Background(), &HTTPRequest{URL: server.URL})

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, model.ProviderSCBEasy, perr.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Contains(t, err.Error(), "down")
}

func TestHTTPClient_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewClientFor(model.ProviderKBank, Options{}).SendJSON(ctx, &HTTPRequest{URL: server.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestValidateCredentials(t *testing.T) {
	fields := []ConfigField{
		{Key: "apiKey", Required: true, MinLength: 4},
		{Key: "secretKey", Required: false, Pattern: `^skey_`},
		{Key: "callbackUrl", Type: "url"},
		{Key: "promptPayId", Type: "digits"},
	}

	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{APIKey: "abcd", SecretKey: "skey_1", CallbackURL: "https://a.b/c", PromptPayID: "081-234-5678"}, false},
		{"missing required", Credentials{}, true},
		{"too short", Credentials{APIKey: "abc"}, true},
		{"pattern mismatch", Credentials{APIKey: "abcd", SecretKey: "pkey_1"}, true},
		{"relative url", Credentials{APIKey: "abcd", CallbackURL: "/cb"}, true},
		{"letters in digits", Credentials{APIKey: "abcd", PromptPayID: "08x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(model.ProviderKBank, tt.creds, fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
