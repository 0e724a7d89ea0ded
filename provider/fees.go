package provider

import (
	"fmt"
	"strings"

	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

func fee(pct string, fixed int64) model.FeeSchedule {
	return model.FeeSchedule{Percentage: decimal.RequireFromString(pct), Fixed: decimal.NewFromInt(fixed)}
}

var defaultFees = map[model.ProviderType]model.FeeSchedule{
	model.ProviderPromptPay:  fee("0.5", 0),
	model.ProviderKBank:      fee("1.0", 5),
	model.ProviderSCBEasy:    fee("1.0", 5),
	model.ProviderTrueMoney:  fee("1.5", 10),
	model.ProviderGBPrimePay: fee("1.2", 8),
	model.ProviderBBL:        fee("1.0", 5),
	model.ProviderOmise:      fee("1.5", 10),
	model.Provider2C2P:       fee("1.3", 8),
	model.ProviderStripe:     fee("1.5", 10),
}

// FallbackFee applies to provider types missing from a table.
var FallbackFee = fee("1.0", 5)

// FeeTable is an immutable fee lookup keyed by provider type.
type FeeTable struct {
	fees map[model.ProviderType]model.FeeSchedule
}

// DefaultFees returns the built-in fee table.
func DefaultFees() FeeTable {
	return NewFeeTable(nil)
}

// NewFeeTable returns the default table with overrides applied on a copy.
func NewFeeTable(overrides map[model.ProviderType]model.FeeSchedule) FeeTable {
	fees := make(map[model.ProviderType]model.FeeSchedule, len(defaultFees)+len(overrides))
	for k, v := range defaultFees {
		fees[k] = v
	}
	for k, v := range overrides {
		fees[k] = v
	}
	return FeeTable{fees: fees}
}

// Lookup returns the fee schedule for t.
func (f FeeTable) Lookup(t model.ProviderType) model.FeeSchedule {
	if s, ok := f.fees[t]; ok {
		return s
	}
	return FallbackFee
}

// DefaultFee returns the built-in fee schedule for t.
func DefaultFee(t model.ProviderType) model.FeeSchedule {
	if s, ok := defaultFees[t]; ok {
		return s
	}
	return FallbackFee
}

// ParseFeeOverrides parses "kbank:1.1:5;omise:1.4:10".
func ParseFeeOverrides(s string) (map[model.ProviderType]model.FeeSchedule, error) {
	out := make(map[model.ProviderType]model.FeeSchedule)
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("fee override %q: want provider:percentage:fixed", entry)
		}
		t := model.ProviderType(strings.TrimSpace(parts[0]))
		if !t.Valid() {
			return nil, fmt.Errorf("fee override %q: unknown provider", entry)
		}
		pct, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("fee override %q: %w", entry, err)
		}
		fixed, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("fee override %q: %w", entry, err)
		}
		if pct.IsNegative() || fixed.IsNegative() {
			return nil, fmt.Errorf("fee override %q: negative fee", entry)
		}
		out[t] = model.FeeSchedule{Percentage: pct, Fixed: fixed}
	}
	return out, nil
}
