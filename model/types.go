// Package model holds the entities shared by the payment core and its storage
// implementations.
package model

import "errors"

// ProviderType identifies an external payment rail.
type ProviderType string

const (
	ProviderPromptPay  ProviderType = "promptpay"
	ProviderKBank      ProviderType = "kbank"
	ProviderSCBEasy    ProviderType = "scb_easy"
	ProviderTrueMoney  ProviderType = "truemoney"
	ProviderGBPrimePay ProviderType = "gbprimepay"
	ProviderBBL        ProviderType = "bbl"
	ProviderOmise      ProviderType = "omise"
	Provider2C2P       ProviderType = "2c2p"
	ProviderStripe     ProviderType = "stripe"
)

// ProviderTypes lists every known provider type.
var ProviderTypes = []ProviderType{
	ProviderPromptPay,
	ProviderKBank,
	ProviderSCBEasy,
	ProviderTrueMoney,
	ProviderGBPrimePay,
	ProviderBBL,
	ProviderOmise,
	Provider2C2P,
	ProviderStripe,
}

// Valid reports whether p is a known provider type.
func (p ProviderType) Valid() bool {
	for _, t := range ProviderTypes {
		if t == p {
			return true
		}
	}
	return false
}

// Repository level sentinels. Storage implementations return these so the
// payment core can classify failures without knowing the engine.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DefaultCurrency is used whenever a caller omits a currency.
const DefaultCurrency = "THB"
