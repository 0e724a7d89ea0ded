package kbank

import (
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

func init() {
	provider.Register(model.ProviderKBank, NewProvider)
}
