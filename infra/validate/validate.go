// Package validate adds the payment specific rules to go-playground/validator.
package validate

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CustomValidate installs the custom rules on v:
//
//   - decimal.Decimal fields compare numerically, so gte=0 works on money
//   - currency accepts a three letter ISO 4217 style code in either case
func CustomValidate(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("currency", isCurrency)
}

// New returns a validator with the custom rules installed.
func New() *validator.Validate {
	v := validator.New()
	CustomValidate(v)
	return v
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func isCurrency(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
