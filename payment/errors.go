package payment

import (
	"errors"
	"net/http"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/mstgnz/thaipay/signature"
	"github.com/mstgnz/thaipay/vault"
)

// Kind classifies failures of the payment core.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindSignature     Kind = "signature"
	KindProvider      Kind = "provider"
	KindDecryption    Kind = "decryption"
	KindInternal      Kind = "internal"
)

// Error is a classified failure with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrOrderNotFound         = &Error{KindNotFound, "ORDER_NOT_FOUND", "order not found"}
	ErrPaymentMethodNotFound = &Error{KindNotFound, "PAYMENT_METHOD_NOT_FOUND", "payment method not found"}
	ErrTransactionNotFound   = &Error{KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found"}

	ErrAmountOutOfRange    = &Error{KindValidation, "AMOUNT_OUT_OF_RANGE", "amount out of range"}
	ErrCurrencyMismatch    = &Error{KindValidation, "CURRENCY_MISMATCH", "currency not accepted by payment method"}
	ErrLimitExceeded       = &Error{KindValidation, "LIMIT_EXCEEDED", "payment method volume limit exceeded"}
	ErrInvalidCallback     = &Error{KindValidation, "INVALID_CALLBACK", "invalid callback payload"}
	ErrInvalidTransition   = &Error{KindValidation, "INVALID_TRANSITION", "status transition not allowed"}
	ErrDuplicateMethod     = &Error{KindValidation, "DUPLICATE_METHOD", "payment method already exists for provider"}
	ErrInvalidLimits       = &Error{KindValidation, "INVALID_LIMITS", "invalid payment method limits"}
	ErrInvalidCredentials  = &Error{KindValidation, "INVALID_CREDENTIALS", "invalid provider credentials"}
	ErrUnsupportedProvider = &Error{KindValidation, "UNSUPPORTED_PROVIDER", "unsupported provider"}
	ErrInvalidInput        = &Error{KindValidation, "INVALID_INPUT", "invalid input"}
)

var signatureErrors = []error{
	signature.ErrNoSecret,
	signature.ErrMissingSignature,
	signature.ErrInvalidSignature,
	signature.ErrMissingTimestamp,
	signature.ErrInvalidTimestamp,
	signature.ErrStaleTimestamp,
}

// KindOf classifies err. Errors from the vault, the signature verifier and the
// adapters are mapped onto the same taxonomy as the core's own errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, vault.ErrDecryptionFailed):
		return KindDecryption
	case errors.Is(err, vault.ErrMissingMasterKey):
		return KindConfiguration
	case errors.Is(err, provider.ErrUnsupportedProvider):
		return KindValidation
	case errors.Is(err, model.ErrNotFound):
		return KindNotFound
	case errors.Is(err, model.ErrDuplicate):
		return KindValidation
	}
	for _, target := range signatureErrors {
		if errors.Is(err, target) {
			return KindSignature
		}
	}
	var pe *provider.Error
	if errors.As(err, &pe) {
		return KindProvider
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or a code derived from its kind.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch KindOf(err) {
	case KindDecryption:
		return "DECRYPTION_FAILED"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindSignature:
		return "INVALID_SIGNATURE"
	case KindProvider:
		return "PROVIDER_ERROR"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps err onto the status code an API should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSignature:
		return http.StatusUnauthorized
	case KindProvider:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
