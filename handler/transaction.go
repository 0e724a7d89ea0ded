package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/thaipay/infra/response"
)

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// GetTransaction handles GET /v1/transactions/{id}
func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	tx, err := h.service.GetTransaction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, "Transaction lookup failed", err)
		return
	}
	response.Success(w, http.StatusOK, "", tx)
}

// RefundTransaction handles POST /v1/transactions/{id}/refund
func (h *PaymentHandler) RefundTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req reasonRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	tx, err := h.service.Refund(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		serviceError(w, r, "Refund failed", err)
		return
	}
	response.Success(w, http.StatusOK, "Transaction refunded", tx)
}

// CancelTransaction handles POST /v1/transactions/{id}/cancel
func (h *PaymentHandler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req reasonRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	tx, err := h.service.Cancel(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		serviceError(w, r, "Cancel failed", err)
		return
	}
	response.Success(w, http.StatusOK, "Transaction cancelled", tx)
}
