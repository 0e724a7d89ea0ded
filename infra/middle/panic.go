package middle

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/infra/response"
)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return PanicRecoveryWithCustomHandler(func(w http.ResponseWriter, r *http.Request, rec any) {
		if rec == http.ErrAbortHandler {
			panic(rec)
		}

		logger.Error("Panic recovered", fmt.Errorf("%v", rec), logger.LogContext{
			MerchantID: r.Header.Get(MerchantIDHeader),
			RequestID:  GetRequestID(r.Context()),
			Fields: map[string]any{
				"method": r.Method,
				"url":    r.URL.Path,
				"stack":  string(debug.Stack()),
			},
		})

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		response.Error(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("an unexpected error occurred"))
	})
}

// PanicRecoveryWithCustomHandler allows custom panic handling
func PanicRecoveryWithCustomHandler(handler func(http.ResponseWriter, *http.Request, any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					handler(w, r, rec)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
