package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
)

// PaymentService is the part of the payment service the payment and
// transaction routes use.
type PaymentService interface {
	GeneratePaymentRequest(ctx context.Context, req payment.PaymentRequest) (*payment.PaymentResult, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	Refund(ctx context.Context, transactionID, reason string) (*model.Transaction, error)
	Cancel(ctx context.Context, transactionID, reason string) (*model.Transaction, error)
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	service  PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service PaymentService, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{service: service, validate: validate}
}

// ProcessPayment handles POST /v1/payments and answers with the payload the
// payer needs: a PromptPay QR, a redirect URL or an app deep link.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req payment.PaymentRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.service.GeneratePaymentRequest(ctx, req)
	if err != nil {
		serviceError(w, r, "Payment request failed", err)
		return
	}
	response.Success(w, http.StatusCreated, "Payment request created", result)
}
