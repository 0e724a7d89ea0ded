package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mstgnz/thaipay/model"
)

// ValidateCredentials checks creds against an adapter's field definitions.
func ValidateCredentials(p model.ProviderType, creds Credentials, fields []ConfigField) error {
	for _, field := range fields {
		value := strings.TrimSpace(creds.Field(field.Key))
		if value == "" {
			if field.Required {
				return fmt.Errorf("%s: required field '%s' is missing", p, field.Key)
			}
			continue
		}

		if err := validateFieldType(p, field, value); err != nil {
			return err
		}
		if err := validateFieldPattern(p, field, value); err != nil {
			return err
		}
		if err := validateFieldLength(p, field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldType(p model.ProviderType, field ConfigField, value string) error {
	switch field.Type {
	case "url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: field '%s' must be an absolute URL", p, field.Key)
		}
	case "digits":
		for _, r := range value {
			if r < '0' || r > '9' {
				if r == '-' || r == ' ' {
					continue
				}
				return fmt.Errorf("%s: field '%s' must contain digits only", p, field.Key)
			}
		}
	}
	return nil
}

func validateFieldPattern(p model.ProviderType, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}
	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return fmt.Errorf("%s: invalid pattern for field '%s': %v", p, field.Key, err)
	}
	if !matched {
		return fmt.Errorf("%s: field '%s' does not match required pattern", p, field.Key)
	}
	return nil
}

func validateFieldLength(p model.ProviderType, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("%s: field '%s' must be at least %d characters", p, field.Key, field.MinLength)
	}
	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("%s: field '%s' must not exceed %d characters", p, field.Key, field.MaxLength)
	}
	return nil
}
