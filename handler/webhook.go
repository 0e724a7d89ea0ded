package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/infra/middle"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/payment"
)

// signatureHeaders are tried in order; the first non-empty one wins.
var signatureHeaders = []string{"X-Webhook-Signature", "X-Signature", "Signature", "Stripe-Signature"}

const timestampHeader = "X-Webhook-Timestamp"

// WebhookService is the part of the payment service the webhook route uses.
type WebhookService interface {
	HandleWebhook(ctx context.Context, in payment.WebhookInput) (*payment.WebhookResult, error)
}

// WebhookHandler receives provider callbacks
type WebhookHandler struct {
	service WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandleWebhook handles POST /webhooks/{provider}. The body is kept as
// received since the signature covers its exact bytes.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "Request body too large", err)
			return
		}
		response.Fail(w, http.StatusBadRequest, "INVALID_REQUEST", "Unreadable body", err)
		return
	}

	result, err := h.service.HandleWebhook(ctx, payment.WebhookInput{
		Provider:  providerName,
		RawBody:   body,
		Signature: webhookSignature(r),
		Timestamp: r.Header.Get(timestampHeader),
	})
	if err != nil {
		logger.Warn("webhook rejected", logger.LogContext{
			Provider:  providerName,
			RequestID: middle.GetRequestID(r.Context()),
			Fields:    map[string]any{"code": payment.CodeOf(err), "error": err.Error()},
		})
		serviceError(w, r, "Webhook rejected", err)
		return
	}

	message := "Callback ignored"
	if result.Applied {
		message = "Callback applied"
	}
	response.Success(w, http.StatusOK, message, result)
}

func webhookSignature(r *http.Request) string {
	for _, name := range signatureHeaders {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return r.URL.Query().Get("signature")
}
