package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/shopspring/decimal"
)

// MethodService is the part of the payment service the method routes use.
type MethodService interface {
	RegisterMethod(ctx context.Context, in payment.RegisterMethodInput) (*model.PaymentMethodConfig, error)
	ListMethods(ctx context.Context, merchantID string) ([]*model.PaymentMethodConfig, error)
	ListAvailableMethods(ctx context.Context, merchantID string, amount decimal.Decimal) ([]*model.PaymentMethodConfig, error)
	UpdateMethodStatus(ctx context.Context, id string, status model.MethodStatus) (*model.PaymentMethodConfig, error)
	SetMethodEnabled(ctx context.Context, id string, enabled bool) (*model.PaymentMethodConfig, error)
}

// MethodHandler handles payment method configuration requests
type MethodHandler struct {
	service  MethodService
	validate *validator.Validate
}

type methodStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending_approval active inactive suspended"`
}

type methodEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// NewMethodHandler creates a new method handler
func NewMethodHandler(service MethodService, validate *validator.Validate) *MethodHandler {
	return &MethodHandler{service: service, validate: validate}
}

// RegisterMethod handles POST /v1/methods
func (h *MethodHandler) RegisterMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req payment.RegisterMethodInput
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	method, err := h.service.RegisterMethod(ctx, req)
	if err != nil {
		serviceError(w, r, "Payment method could not be registered", err)
		return
	}
	response.Success(w, http.StatusCreated, "Payment method registered", method)
}

// ListMethods handles GET /v1/methods/merchant/{merchantID}
func (h *MethodHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	methods, err := h.service.ListMethods(ctx, chi.URLParam(r, "merchantID"))
	if err != nil {
		serviceError(w, r, "Payment methods could not be listed", err)
		return
	}
	response.Success(w, http.StatusOK, "", methods)
}

// ListAvailableMethods handles GET /v1/methods/merchant/{merchantID}/available?amount=
func (h *MethodHandler) ListAvailableMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		response.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount query parameter must be a decimal", err)
		return
	}

	methods, err := h.service.ListAvailableMethods(ctx, chi.URLParam(r, "merchantID"), amount)
	if err != nil {
		serviceError(w, r, "Payment methods could not be listed", err)
		return
	}
	response.Success(w, http.StatusOK, "", methods)
}

// UpdateStatus handles PATCH /v1/methods/{id}/status
func (h *MethodHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req methodStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	method, err := h.service.UpdateMethodStatus(ctx, chi.URLParam(r, "id"), model.MethodStatus(req.Status))
	if err != nil {
		serviceError(w, r, "Payment method status could not be updated", err)
		return
	}
	response.Success(w, http.StatusOK, "Payment method updated", method)
}

// SetEnabled handles PATCH /v1/methods/{id}/enabled
func (h *MethodHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req methodEnabledRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	method, err := h.service.SetMethodEnabled(ctx, chi.URLParam(r, "id"), *req.Enabled)
	if err != nil {
		serviceError(w, r, "Payment method could not be updated", err)
		return
	}
	response.Success(w, http.StatusOK, "Payment method updated", method)
}
