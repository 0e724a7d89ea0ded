package payment

import (
	"strings"

	"github.com/mstgnz/thaipay/model"
)

var statusMap = map[string]model.TransactionStatus{
	"success":    model.StatusCompleted,
	"completed":  model.StatusCompleted,
	"paid":       model.StatusCompleted,
	"succeeded":  model.StatusCompleted,
	"successful": model.StatusCompleted,
	"failed":     model.StatusFailed,
	"cancelled":  model.StatusCancelled,
	"canceled":   model.StatusCancelled,
	"pending":    model.StatusPending,
	"processing": model.StatusProcessing,
}

// MapStatus translates a provider status word. Unknown words map to pending.
func MapStatus(providerStatus string) model.TransactionStatus {
	if s, ok := statusMap[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return s
	}
	return model.StatusPending
}
