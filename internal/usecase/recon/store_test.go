package recon

import (
	"testing"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

func TestGuardSkip(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.ReconciliationRecord
		own  domain.RetryAction
		want string
	}{
		{"fresh", domain.ReconciliationRecord{PaymentStatus: domain.PaymentStatusNone}, domain.RetrySyncOrder, ""},
		{"hard error", domain.ReconciliationRecord{HardError: true}, domain.RetrySyncOrder, SkipHardError},
		{"own transient error", domain.ReconciliationRecord{TransientError: true, RetryAction: domain.RetrySyncOrder}, domain.RetrySyncOrder, ""},
		{"foreign transient error", domain.ReconciliationRecord{TransientError: true, RetryAction: domain.RetrySyncPayment}, domain.RetrySyncOrder, SkipRetryActionMismatch},
		{"transient error without action", domain.ReconciliationRecord{TransientError: true}, domain.RetrySyncPayment, SkipRetryActionMismatch},
		{"completed", domain.ReconciliationRecord{ProcessingCompleted: true}, domain.RetrySyncOrder, SkipProcessingCompleted},
		{"settle in progress", domain.ReconciliationRecord{PaymentStatus: domain.PaymentStatusSettleInProgress}, domain.RetrySyncOrder, SkipInProgress},
		{"settle failed", domain.ReconciliationRecord{PaymentStatus: domain.PaymentStatusSettleFailed}, domain.RetrySyncOrder, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuardSkip(&tt.rec, tt.own); got != tt.want {
				t.Errorf("GuardSkip() = %q, want %q", got, tt.want)
			}
		})
	}
}
