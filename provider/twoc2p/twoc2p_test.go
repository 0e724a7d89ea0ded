package twoc2p

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/shopspring/decimal"
)

func TestProvider_BuildPaymentPayload(t *testing.T) {
	const secret = "2c2p-secret-key-0001"

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"success", `{"paymentToken":"tok_1","webPaymentUrl":"https://pgw.example/pay/tok_1","respCode":"0000","respDesc":"Success"}`, false},
		{"rejected", `{"respCode":"9042","respDesc":"Invalid merchant"}`, true},
		{"missing url", `{"paymentToken":"tok_2","respCode":"0000"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if got, want := r.Header.Get("signature"), Sign(secret, body); got != want {
					t.Errorf("signature = %s, want %s", got, want)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tx := &model.Transaction{TransactionID: "TXN-2C", Amount: decimal.NewFromInt(700)}
			payload, err := NewProvider(provider.Options{}).BuildPaymentPayload(context.Background(), tx, nil,
				provider.Credentials{MerchantID: "JT01", SecretKey: secret, Endpoint: server.URL})

			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildPaymentPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (payload.URL != "https://pgw.example/pay/tok_1" || payload.ReferenceNo != "tok_1") {
				t.Errorf("payload = %+v", payload)
			}
		})
	}
}
