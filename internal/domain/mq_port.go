package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventSettleDispatched EventType = "SETTLE_DISPATCHED"
	EventRefundDispatched EventType = "REFUND_DISPATCHED"
	EventSettled          EventType = "SETTLED"
	EventRefunded         EventType = "REFUNDED"
	EventSettleFailed     EventType = "SETTLE_FAILED"
	EventRefundFailed     EventType = "REFUND_FAILED"
	EventMultitoken       EventType = "MULTITOKEN"
	EventPaymentReceived  EventType = "PAYMENT_RECEIVED"
	EventOrderFailed      EventType = "ORDER_FAILED"
	EventHardError        EventType = "HARD_ERROR"
	EventProcessingDone   EventType = "PROCESSING_COMPLETED"
)

type ReconciliationEvent struct {
	EventID       string        `json:"event_id"`
	OrderID       string        `json:"order_id"`
	Type          EventType     `json:"type"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	TxID          string        `json:"txid,omitempty"`
	Job           DataSource    `json:"job,omitempty"`
	Code          ErrorCode     `json:"code,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event ReconciliationEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReconciliationEvent) error { return nil }
