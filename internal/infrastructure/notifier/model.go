package notifier

import "time"

// CallbackPayload is posted to the merchant callback URL.
type CallbackPayload struct {
	EventID       string    `json:"event_id"`
	OrderID       string    `json:"order_id"`
	Event         string    `json:"event"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TxID          string    `json:"txid,omitempty"`
	Code          string    `json:"code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
