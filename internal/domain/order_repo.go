package domain

import (
	"context"
	"time"
)

// OrderFilter selects orders joined to a reconciliation record that is not
// processing-completed. Nil fields are ignored.
type OrderFilter struct {
	Status         *OrderStatus
	PaymentStatus  *PaymentStatus
	TransientError *bool
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	// ApplyTransition is a silent no-op (applied=false) when t is not legal
	// from the order's current status.
	ApplyTransition(ctx context.Context, order *Order, t Transition) (applied bool, err error)
	// GetOrdersChangedSince returns completed or canceled orders modified in
	// [since, until] whose record is not processing-completed, oldest first.
	GetOrdersChangedSince(ctx context.Context, since, until time.Time) ([]*Order, error)
	FindOrders(ctx context.Context, filter OrderFilter) ([]*Order, error)
	// GetPendingOrder returns nil without error when no order with this id
	// is waiting for payment.
	GetPendingOrder(ctx context.Context, orderID string) (*Order, error)
}
