package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/mstgnz/thaipay/infra/config"
	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/provider"
	"github.com/shopspring/decimal"
)

// RegisterMethodInput describes a new payment method.
type RegisterMethodInput struct {
	MerchantID  string               `json:"merchantId" validate:"required,max=64"`
	Provider    model.ProviderType   `json:"provider" validate:"required"`
	Name        string               `json:"name" validate:"required,max=100"`
	Description string               `json:"description" validate:"max=500"`
	Credentials provider.Credentials `json:"config"`
	Limits      *model.Limits        `json:"limits,omitempty"`
	Fees        *model.FeeSchedule   `json:"fees,omitempty"`
	Priority    int                  `json:"priority" validate:"gte=0"`
	IsDefault   bool                 `json:"isDefault"`
}

// RegisterMethod creates a pending_approval method with encrypted credentials.
func (s *Service) RegisterMethod(ctx context.Context, in RegisterMethodInput) (*model.PaymentMethodConfig, error) {
	if err := config.App().Validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !in.Provider.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, in.Provider)
	}

	if _, err := s.methods.FindByProvider(ctx, in.MerchantID, in.Provider); err == nil {
		return nil, ErrDuplicateMethod
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	limits := model.DefaultLimits()
	if in.Limits != nil {
		limits = *in.Limits
		if limits.Currency == "" {
			limits.Currency = model.DefaultCurrency
		}
	}
	if !limits.Valid() {
		return nil, ErrInvalidLimits
	}

	fees := s.fees.Lookup(in.Provider)
	if in.Fees != nil {
		if in.Fees.Percentage.IsNegative() || in.Fees.Fixed.IsNegative() {
			return nil, fmt.Errorf("%w: fees must not be negative", ErrInvalidInput)
		}
		fees = *in.Fees
	}

	// bbl has a fee entry but no adapter yet; its credentials cannot be checked.
	if adapter, err := s.adapters.For(in.Provider); err == nil {
		if err := provider.ValidateCredentials(in.Provider, in.Credentials, adapter.RequiredConfig()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	}

	blob, err := s.vault.EncryptFields(in.Credentials)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	m := &model.PaymentMethodConfig{
		ID:          uuid.NewString(),
		MerchantID:  in.MerchantID,
		Provider:    in.Provider,
		Name:        in.Name,
		Description: in.Description,
		Status:      model.MethodPendingApproval,
		Config:      blob,
		Limits:      limits,
		Fees:        fees,
		Usage:       model.Usage{TotalVolume: decimal.Zero},
		IsEnabled:   true,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.methods.Save(ctx, m); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, ErrDuplicateMethod
		}
		return nil, err
	}

	if in.IsDefault {
		if err := s.SetDefault(ctx, m.ID); err != nil {
			return nil, err
		}
		m.IsDefault = true
	}

	s.audit(ctx, AuditEvent{
		Action:          AuditMethodRegistered,
		MerchantID:      m.MerchantID,
		Provider:        m.Provider,
		PaymentMethodID: m.ID,
		Message:         "Payment method registered",
	})
	return m, nil
}

// GetMethod returns a method by id.
func (s *Service) GetMethod(ctx context.Context, id string) (*model.PaymentMethodConfig, error) {
	m, err := s.methods.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrPaymentMethodNotFound
	}
	return m, err
}

// ListMethods returns the enabled methods of a merchant, by priority then
// newest first.
func (s *Service) ListMethods(ctx context.Context, merchantID string) ([]*model.PaymentMethodConfig, error) {
	all, err := s.methods.FindByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	methods := make([]*model.PaymentMethodConfig, 0, len(all))
	for _, m := range all {
		if m.IsEnabled {
			methods = append(methods, m)
		}
	}
	sortMethods(methods)
	return methods, nil
}

// ListAvailableMethods returns the methods that can take a payment of amount.
func (s *Service) ListAvailableMethods(ctx context.Context, merchantID string, amount decimal.Decimal) ([]*model.PaymentMethodConfig, error) {
	all, err := s.methods.FindByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	methods := make([]*model.PaymentMethodConfig, 0, len(all))
	for _, m := range all {
		if m.Usable() && m.Limits.Contains(amount) {
			methods = append(methods, m)
		}
	}
	sortMethods(methods)
	return methods, nil
}

func sortMethods(methods []*model.PaymentMethodConfig) {
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].Priority != methods[j].Priority {
			return methods[i].Priority < methods[j].Priority
		}
		return methods[i].CreatedAt.After(methods[j].CreatedAt)
	})
}

// FindMethodByProvider returns the merchant's method for p.
func (s *Service) FindMethodByProvider(ctx context.Context, merchantID string, p model.ProviderType) (*model.PaymentMethodConfig, error) {
	m, err := s.methods.FindByProvider(ctx, merchantID, p)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrPaymentMethodNotFound
	}
	return m, err
}

// UpdateMethodStatus approves, suspends or deactivates a method.
func (s *Service) UpdateMethodStatus(ctx context.Context, id string, status model.MethodStatus) (*model.PaymentMethodConfig, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.updateMethod(ctx, id, func(m *model.PaymentMethodConfig) error {
		m.Status = status
		return nil
	})
}

// SetMethodEnabled toggles a method without touching its status.
func (s *Service) SetMethodEnabled(ctx context.Context, id string, enabled bool) (*model.PaymentMethodConfig, error) {
	return s.updateMethod(ctx, id, func(m *model.PaymentMethodConfig) error {
		m.IsEnabled = enabled
		return nil
	})
}

// UpdateMethodLimits replaces the limits of a method.
func (s *Service) UpdateMethodLimits(ctx context.Context, id string, limits model.Limits) (*model.PaymentMethodConfig, error) {
	if limits.Currency == "" {
		limits.Currency = model.DefaultCurrency
	}
	if !limits.Valid() {
		return nil, ErrInvalidLimits
	}
	return s.updateMethod(ctx, id, func(m *model.PaymentMethodConfig) error {
		m.Limits = limits
		return nil
	})
}

// UpdateMethodFees replaces the fee schedule. Recorded transaction fees are
// not affected.
func (s *Service) UpdateMethodFees(ctx context.Context, id string, fees model.FeeSchedule) (*model.PaymentMethodConfig, error) {
	if fees.Percentage.IsNegative() || fees.Fixed.IsNegative() {
		return nil, fmt.Errorf("%w: fees must not be negative", ErrInvalidInput)
	}
	return s.updateMethod(ctx, id, func(m *model.PaymentMethodConfig) error {
		m.Fees = fees
		return nil
	})
}

// UpdateMethodCredentials re-encrypts a new credential object.
func (s *Service) UpdateMethodCredentials(ctx context.Context, id string, creds provider.Credentials) (*model.PaymentMethodConfig, error) {
	return s.updateMethod(ctx, id, func(m *model.PaymentMethodConfig) error {
		if adapter, err := s.adapters.For(m.Provider); err == nil {
			if err := provider.ValidateCredentials(m.Provider, creds, adapter.RequiredConfig()); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
			}
		}
		blob, err := s.vault.EncryptFields(creds)
		if err != nil {
			return err
		}
		m.Config = blob
		return nil
	})
}

// SetDefault makes id the merchant's default method and clears the others.
func (s *Service) SetDefault(ctx context.Context, id string) error {
	target, err := s.GetMethod(ctx, id)
	if err != nil {
		return err
	}
	all, err := s.methods.FindByMerchant(ctx, target.MerchantID)
	if err != nil {
		return err
	}
	now := s.timestamp()
	for _, m := range all {
		want := m.ID == id
		if m.IsDefault == want {
			continue
		}
		m.IsDefault = want
		m.UpdatedAt = now
		if err := s.methods.Update(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// DecryptCredentials opens the credential blob of m. A tampered blob fails
// with vault.ErrDecryptionFailed.
func (s *Service) DecryptCredentials(m *model.PaymentMethodConfig) (provider.Credentials, error) {
	var creds provider.Credentials
	if len(m.Config) == 0 {
		return creds, nil
	}
	if err := s.vault.DecryptFields(json.RawMessage(m.Config), &creds); err != nil {
		logger.Error("Failed to decrypt payment method config", err, logger.LogContext{
			MerchantID: m.MerchantID,
			Provider:   string(m.Provider),
			Fields:     map[string]any{"payment_method_id": m.ID},
		})
		return provider.Credentials{}, err
	}
	return creds, nil
}

func (s *Service) updateMethod(ctx context.Context, id string, mutate func(*model.PaymentMethodConfig) error) (*model.PaymentMethodConfig, error) {
	m, err := s.GetMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(m); err != nil {
		return nil, err
	}
	m.UpdatedAt = s.timestamp()
	if err := s.methods.Update(ctx, m); err != nil {
		return nil, err
	}
	s.audit(ctx, AuditEvent{
		Action:          AuditMethodUpdated,
		MerchantID:      m.MerchantID,
		Provider:        m.Provider,
		PaymentMethodID: m.ID,
		Fields: map[string]any{
			"status":  string(m.Status),
			"enabled": m.IsEnabled,
		},
	})
	return m, nil
}
