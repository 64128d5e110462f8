package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from OrderStatus
		t    Transition
		want OrderStatus
		ok   bool
	}{
		{StatusDraft, TransitionPlace, StatusPending, true},
		{StatusPending, TransitionConfirm, StatusAwaitingConfirmation, true},
		{StatusCompleted, TransitionMultitoken, StatusMultitoken, true},
		{StatusCanceled, TransitionMultitoken, StatusMultitoken, true},
		{StatusMultitoken, TransitionSingletoken, StatusSingletokenProcessing, true},
		{StatusSingletokenProcessing, TransitionProcess, StatusFulfillment, true},
		{StatusPending, TransitionFail, StatusFailed, true},
		{StatusFulfillment, TransitionComplete, StatusCompleted, true},
		{StatusMultitoken, TransitionCancel, StatusCanceled, true},

		{StatusPending, TransitionPlace, StatusPending, false},
		{StatusAwaitingConfirmation, TransitionFail, StatusAwaitingConfirmation, false},
		{StatusFulfillment, TransitionMultitoken, StatusFulfillment, false},
		{StatusCompleted, TransitionProcess, StatusCompleted, false},
		{StatusFailed, Transition("reopen"), StatusFailed, false},
	}
	for _, tt := range tests {
		got, ok := NextStatus(tt.from, tt.t)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NextStatus(%s, %s) = %s, %v; want %s, %v", tt.from, tt.t, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRetryAction(t *testing.T) {
	for _, a := range []RetryAction{RetrySyncOrder, RetrySyncPayment, RetrySettle, RetryRefund} {
		got, err := ParseRetryAction(RetryActionName(a))
		if err != nil || !IsRetryAction(got, a) {
			t.Errorf("ParseRetryAction(%q) = %v, %v", a.Name(), got, err)
		}
	}

	if a, err := ParseRetryAction(""); a != nil || err != nil {
		t.Errorf("ParseRetryAction(\"\") = %v, %v; want nil, nil", a, err)
	}
	if _, err := ParseRetryAction("resync"); !errors.Is(err, ErrUnknownRetryAction) {
		t.Errorf("ParseRetryAction(resync) error = %v", err)
	}
	if IsRetryAction(nil, RetrySettle) || IsRetryAction(RetrySettle, RetryRefund) {
		t.Error("IsRetryAction matched different variants")
	}
}

func TestRecordPredicates(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	order := &Order{CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-3 * time.Minute)}
	rec := &ReconciliationRecord{DataSource: SourcePaymentsCron}

	if !rec.RecentlyWrittenBy(SourcePaymentsCron, order, now, 10*time.Minute) {
		t.Error("write 3 minutes ago inside a 10 minute window not detected")
	}
	if rec.RecentlyWrittenBy(SourceOrdersCron, order, now, 10*time.Minute) {
		t.Error("collision reported for another job")
	}
	if rec.RecentlyWrittenBy(SourcePaymentsCron, order, now, 2*time.Minute) {
		t.Error("collision reported outside the window")
	}

	fresh := &Order{CreatedAt: now.Add(-time.Minute)}
	if !fresh.ModifiedAt().Equal(fresh.CreatedAt) {
		t.Error("ModifiedAt of a never updated order should fall back to CreatedAt")
	}

	if (&ReconciliationRecord{}).Inert() {
		t.Error("fresh record is inert")
	}
	if !(&ReconciliationRecord{HardError: true}).Inert() || !(&ReconciliationRecord{ProcessingCompleted: true}).Inert() {
		t.Error("hard error or completed record is not inert")
	}

	if !PaymentStatusRefundInProgress.InProgress() || PaymentStatusRefunded.InProgress() {
		t.Error("InProgress mismatch")
	}
	if PaymentStatusReceived.Dispatched() || !PaymentStatusSettleFailed.Dispatched() {
		t.Error("Dispatched mismatch")
	}
}

func TestResolveCode(t *testing.T) {
	if ResolveCode(nil) != CodeOK {
		t.Error("nil error is not OK")
	}
	if got := ResolveCode(fmt.Errorf("%w: 2 tokens", ErrMultiTokenPayment)); got != CodeMultitoken {
		t.Errorf("multitoken code = %d", got)
	}
	if got := ResolveCode(&GatewayError{Op: "getPayment", Message: "timeout"}); got != CodeLookupFailed {
		t.Errorf("lookup code = %d", got)
	}
}

func TestBalancesLookup(t *testing.T) {
	b := Balances{NetworkEthereum: {"goerli": {"0xT": {Balance: decimal.NewFromInt(5)}}}}
	if entry, ok := b.Lookup(NetworkEthereum, "goerli", "0xT"); !ok || entry.Balance.IntPart() != 5 {
		t.Errorf("Lookup = %v, %v", entry, ok)
	}
	for _, path := range [][3]string{{NetworkRSK, "rsk", "0xT"}, {NetworkEthereum, "mainnet", "0xT"}, {NetworkEthereum, "goerli", "0xU"}} {
		if _, ok := b.Lookup(path[0], path[1], path[2]); ok {
			t.Errorf("Lookup(%v) found a balance", path)
		}
	}

	var info *PaymentInfo
	if !info.Amount().IsZero() {
		t.Error("nil PaymentInfo has an amount")
	}
}
