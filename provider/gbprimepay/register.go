package gbprimepay

import (
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
)

func init() {
	provider.Register(model.ProviderGBPrimePay, NewProvider)
}
