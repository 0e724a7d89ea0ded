package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
)

// OrderService is the part of the payment service the order routes use.
type OrderService interface {
	CreateOrder(ctx context.Context, in payment.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

// OrderHandler handles order requests
type OrderHandler struct {
	service  OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service OrderService, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{service: service, validate: validate}
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req payment.CreateOrderInput
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	order, err := h.service.CreateOrder(ctx, req)
	if err != nil {
		serviceError(w, r, "Order could not be created", err)
		return
	}
	response.Success(w, http.StatusCreated, "Order created", order)
}

// GetOrder handles GET /v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, "Order lookup failed", err)
		return
	}
	response.Success(w, http.StatusOK, "", order)
}
