package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrRecordNotFound     = errors.New("reconciliation record not found")
	ErrBalanceLookup      = errors.New("token balance lookup failed")
	ErrMultiTokenPayment  = errors.New("more than one token balance found")
	ErrMalformedPayload   = errors.New("malformed payment payload")
	ErrUnknownRetryAction = errors.New("unknown retry action")
	ErrUnknownJob         = errors.New("unknown cron job")
	ErrJobLocked          = errors.New("cron job already running")
	ErrInvalidCheckout    = errors.New("checkout payment validation failed")
)

// ErrorCode is the persisted code of a transient or hard error.
type ErrorCode string

const (
	CodePaymentSyncCollision ErrorCode = "E102"
	CodeSettleDispatch       ErrorCode = "E103"
	CodeOrderSyncCollision   ErrorCode = "E200"
	CodeRefundDispatch       ErrorCode = "E205"
	CodeRetryExhausted       ErrorCode = "E300"
	CodeSettleVerify         ErrorCode = "E908"
	CodeRefundVerify         ErrorCode = "E909"
)

// Numeric outcome codes of a gateway or balance resolution call.
const (
	CodeOK           = 0
	CodeLookupFailed = -1
	CodeMultitoken   = -2
)

// GatewayError is the normalized failure of a payment API call.
type GatewayError struct {
	Op         string
	Code       int
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ResolveCode maps a resolution outcome to its numeric code.
func ResolveCode(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrMultiTokenPayment):
		return CodeMultitoken
	default:
		return CodeLookupFailed
	}
}
