package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/model"
)

// SettlementService is the part of the payment service the settlement routes use.
type SettlementService interface {
	CalculateSettlement(ctx context.Context, merchantID string, from, to time.Time) (*model.SettlementSummary, error)
	CreateSettlement(ctx context.Context, merchantID string, typ model.SettlementType, from, to time.Time) (*model.Settlement, error)
}

// SettlementHandler handles settlement requests
type SettlementHandler struct {
	service  SettlementService
	validate *validator.Validate
}

type createSettlementRequest struct {
	Type string    `json:"type" validate:"omitempty,oneof=daily weekly monthly manual"`
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(service SettlementService, validate *validator.Validate) *SettlementHandler {
	return &SettlementHandler{service: service, validate: validate}
}

// Summary handles GET /v1/settlements/{merchantID}?from=&to= with RFC 3339 bounds.
func (h *SettlementHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	from, err := parseTimeParam(r, "from")
	if err != nil {
		response.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid settlement window", err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		response.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid settlement window", err)
		return
	}

	summary, err := h.service.CalculateSettlement(ctx, chi.URLParam(r, "merchantID"), from, to)
	if err != nil {
		serviceError(w, r, "Settlement could not be calculated", err)
		return
	}
	response.Success(w, http.StatusOK, "", summary)
}

// Create handles POST /v1/settlements/{merchantID}
func (h *SettlementHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req createSettlementRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	settlement, err := h.service.CreateSettlement(ctx, chi.URLParam(r, "merchantID"), model.SettlementType(req.Type), req.From, req.To)
	if err != nil {
		serviceError(w, r, "Settlement could not be created", err)
		return
	}
	response.Success(w, http.StatusCreated, "Settlement created", settlement)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC 3339: %w", name, err)
	}
	return t, nil
}
