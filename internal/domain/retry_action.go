package domain

import "fmt"

// RetryAction is the operation a transient error must replay. The set of
// actions is closed: only the variants below implement it.
type RetryAction interface {
	Name() string
	retryAction()
}

type (
	SyncOrderAction   struct{}
	SyncPaymentAction struct{}
	SettleAction      struct{}
	RefundAction      struct{}
)

func (SyncOrderAction) Name() string   { return "syncOrder" }
func (SyncPaymentAction) Name() string { return "syncPayment" }
func (SettleAction) Name() string      { return "settle" }
func (RefundAction) Name() string      { return "refund" }

func (SyncOrderAction) retryAction()   {}
func (SyncPaymentAction) retryAction() {}
func (SettleAction) retryAction()      {}
func (RefundAction) retryAction()      {}

var (
	RetrySyncOrder   RetryAction = SyncOrderAction{}
	RetrySyncPayment RetryAction = SyncPaymentAction{}
	RetrySettle      RetryAction = SettleAction{}
	RetryRefund      RetryAction = RefundAction{}
)

// ParseRetryAction maps a stored action name back to its variant. The empty
// name decodes to a nil action.
func ParseRetryAction(name string) (RetryAction, error) {
	switch name {
	case "":
		return nil, nil
	case RetrySyncOrder.Name():
		return RetrySyncOrder, nil
	case RetrySyncPayment.Name():
		return RetrySyncPayment, nil
	case RetrySettle.Name():
		return RetrySettle, nil
	case RetryRefund.Name():
		return RetryRefund, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRetryAction, name)
}

// RetryActionName is the storage form of a possibly nil action.
func RetryActionName(a RetryAction) string {
	if a == nil {
		return ""
	}
	return a.Name()
}

// IsRetryAction reports whether a is the same variant as want.
func IsRetryAction(a, want RetryAction) bool {
	return a != nil && want != nil && a.Name() == want.Name()
}
