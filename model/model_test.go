package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		from  TransactionStatus
		to    TransactionStatus
		want  bool
	}{
		{"pending to processing", ActorProvider, StatusPending, StatusProcessing, true},
		{"pending to completed", ActorProvider, StatusPending, StatusCompleted, true},
		{"pending to failed", ActorProvider, StatusPending, StatusFailed, true},
		{"processing to completed", ActorProvider, StatusProcessing, StatusCompleted, true},
		{"processing back to pending", ActorProvider, StatusProcessing, StatusPending, false},
		{"completed to failed", ActorProvider, StatusCompleted, StatusFailed, false},
		{"provider cannot refund", ActorProvider, StatusCompleted, StatusRefunded, false},
		{"provider cannot cancel", ActorProvider, StatusPending, StatusCancelled, false},
		{"admin refund", ActorAdmin, StatusCompleted, StatusRefunded, true},
		{"admin cancel pending", ActorAdmin, StatusPending, StatusCancelled, true},
		{"admin cancel processing", ActorAdmin, StatusProcessing, StatusCancelled, true},
		{"admin cannot cancel completed", ActorAdmin, StatusCompleted, StatusCancelled, false},
		{"admin cannot complete", ActorAdmin, StatusPending, StatusCompleted, false},
		{"refunded is final", ActorAdmin, StatusRefunded, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.actor, tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%v, %s, %s) = %v, want %v", tt.actor, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransactionStatus_Terminal(t *testing.T) {
	terminal := map[TransactionStatus]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusCancelled:  true,
		StatusRefunded:   true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestFeeSchedule_FeeFor(t *testing.T) {
	tests := []struct {
		name   string
		fee    FeeSchedule
		amount string
		want   string
	}{
		{"percentage only", FeeSchedule{Percentage: d("0.5")}, "150.00", "0.75"},
		{"percentage and fixed", FeeSchedule{Percentage: d("3.65"), Fixed: d("10")}, "100", "13.65"},
		{"rounds to satang", FeeSchedule{Percentage: d("1.5")}, "0.33", "0"},
		{"half satang rounds up", FeeSchedule{Percentage: d("2.5")}, "0.20", "0.01"},
		{"zero schedule", FeeSchedule{}, "999.99", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fee.FeeFor(d(tt.amount))
			if !got.Equal(d(tt.want)) {
				t.Errorf("FeeFor(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestLimits(t *testing.T) {
	limits := Limits{MinAmount: d("10"), MaxAmount: d("500")}

	contains := []struct {
		amount string
		want   bool
	}{
		{"9.99", false},
		{"10", true},
		{"250.50", true},
		{"500", true},
		{"500.01", false},
	}
	for _, tt := range contains {
		if got := limits.Contains(d(tt.amount)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.amount, got, tt.want)
		}
	}

	valid := []struct {
		name   string
		limits Limits
		want   bool
	}{
		{"defaults", DefaultLimits(), true},
		{"min equals max", Limits{MinAmount: d("5"), MaxAmount: d("5")}, true},
		{"min above max", Limits{MinAmount: d("10"), MaxAmount: d("5")}, false},
		{"negative min", Limits{MinAmount: d("-1"), MaxAmount: d("5")}, false},
		{"negative daily cap", Limits{MaxAmount: d("5"), DailyLimit: d("-1")}, false},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.limits.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_ComputeTotal(t *testing.T) {
	o := &Order{
		Subtotal: d("1000.00"),
		Tax:      d("70.00"),
		Shipping: d("50.00"),
		Discount: d("120.00"),
	}
	if got := o.ComputeTotal(); !got.Equal(d("1000.00")) {
		t.Errorf("ComputeTotal() = %s, want 1000.00", got)
	}
}

func TestPaymentMethodConfig_Usable(t *testing.T) {
	tests := []struct {
		status  MethodStatus
		enabled bool
		want    bool
	}{
		{MethodActive, true, true},
		{MethodActive, false, false},
		{MethodPendingApproval, true, false},
		{MethodSuspended, true, false},
		{MethodInactive, true, false},
	}
	for _, tt := range tests {
		m := &PaymentMethodConfig{Status: tt.status, IsEnabled: tt.enabled}
		if got := m.Usable(); got != tt.want {
			t.Errorf("Usable() with status=%s enabled=%v = %v, want %v", tt.status, tt.enabled, got, tt.want)
		}
	}
}

func TestStatusUpdate_Apply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reason := "expired"
	tx := &Transaction{Status: StatusPending, FailureReason: "old", ProviderResponse: []byte(`{"a":1}`)}

	StatusUpdate{Status: StatusFailed, FailureReason: &reason, UpdatedAt: now}.Apply(tx)

	if tx.Status != StatusFailed || tx.FailureReason != "expired" {
		t.Errorf("got status=%s reason=%q", tx.Status, tx.FailureReason)
	}
	if string(tx.ProviderResponse) != `{"a":1}` {
		t.Errorf("nil provider response should leave the stored one, got %s", tx.ProviderResponse)
	}
	if tx.CompletedAt != nil || !tx.UpdatedAt.Equal(now) {
		t.Errorf("unexpected timestamps: completed=%v updated=%v", tx.CompletedAt, tx.UpdatedAt)
	}
}

func TestProviderType_Valid(t *testing.T) {
	for _, p := range ProviderTypes {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if ProviderType("paypal").Valid() {
		t.Error("unknown provider reported valid")
	}
}
