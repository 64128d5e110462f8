package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusDraft                 OrderStatus = "draft"
	StatusPending               OrderStatus = "pending"
	StatusAwaitingConfirmation  OrderStatus = "awaiting-confirmation"
	StatusMultitoken            OrderStatus = "multitoken"
	StatusSingletokenProcessing OrderStatus = "singletoken-processing"
	StatusFulfillment           OrderStatus = "fulfillment"
	StatusCompleted             OrderStatus = "completed"
	StatusCanceled              OrderStatus = "canceled"
	StatusFailed                OrderStatus = "failed"
)

// Transition names an order workflow edge.
type Transition string

const (
	TransitionPlace       Transition = "place"
	TransitionConfirm     Transition = "confirm"
	TransitionMultitoken  Transition = "multitoken"
	TransitionSingletoken Transition = "singletoken"
	TransitionProcess     Transition = "process"
	TransitionFail        Transition = "fail"
	TransitionComplete    Transition = "complete"
	TransitionCancel      Transition = "cancel"
)

type transitionRule struct {
	from []OrderStatus
	to   OrderStatus
}

var orderWorkflow = map[Transition]transitionRule{
	TransitionPlace:       {from: []OrderStatus{StatusDraft}, to: StatusPending},
	TransitionConfirm:     {from: []OrderStatus{StatusPending}, to: StatusAwaitingConfirmation},
	TransitionMultitoken:  {from: []OrderStatus{StatusPending, StatusAwaitingConfirmation, StatusCompleted, StatusCanceled}, to: StatusMultitoken},
	TransitionSingletoken: {from: []OrderStatus{StatusMultitoken}, to: StatusSingletokenProcessing},
	TransitionProcess:     {from: []OrderStatus{StatusPending, StatusAwaitingConfirmation, StatusSingletokenProcessing}, to: StatusFulfillment},
	TransitionFail:        {from: []OrderStatus{StatusPending}, to: StatusFailed},
	TransitionComplete:    {from: []OrderStatus{StatusFulfillment}, to: StatusCompleted},
	TransitionCancel:      {from: []OrderStatus{StatusPending, StatusAwaitingConfirmation, StatusMultitoken, StatusFulfillment}, to: StatusCanceled},
}

// NextStatus reports the status reached by applying t from current.
// ok is false when the transition is not legal from current.
func NextStatus(current OrderStatus, t Transition) (next OrderStatus, ok bool) {
	rule, found := orderWorkflow[t]
	if !found {
		return current, false
	}
	for _, from := range rule.from {
		if from == current {
			return rule.to, true
		}
	}
	return current, false
}

// GatewayBleumiPay marks orders paid through the hosted checkout. Orders of
// any other gateway are invisible to reconciliation.
const GatewayBleumiPay = "bleumi_pay"

// PendingStatuses are the states in which an order still waits for a payment.
var PendingStatuses = []OrderStatus{StatusPending, StatusAwaitingConfirmation, StatusMultitoken}

type Order struct {
	ID             string
	Status         OrderStatus
	TotalAmount    decimal.Decimal
	Currency       string
	PaymentGateway string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ModifiedAt falls back to the creation time for orders never updated.
func (o *Order) ModifiedAt() time.Time {
	if o.UpdatedAt.IsZero() {
		return o.CreatedAt
	}
	return o.UpdatedAt
}
