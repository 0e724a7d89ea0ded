package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/infra/middle"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/payment"
)

// requestTimeout bounds every service call made on behalf of a request.
const requestTimeout = 30 * time.Second

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// An empty body decodes as the zero value. It writes the 400 response itself
// and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation error", verrs)
			return false
		}
		response.Fail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation error", err)
		return false
	}
	return true
}

// serviceError writes err with the status and code its kind maps to.
func serviceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := payment.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, err, logger.LogContext{
			RequestID: middle.GetRequestID(r.Context()),
			Fields:    map[string]any{"path": r.URL.Path, "code": payment.CodeOf(err)},
		})
	}
	response.Fail(w, status, payment.CodeOf(err), message, err)
}
