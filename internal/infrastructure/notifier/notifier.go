package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
)

// DefaultEventTypes are the outcomes a merchant has to act on.
var DefaultEventTypes = []domain.EventType{
	domain.EventSettled,
	domain.EventRefunded,
	domain.EventMultitoken,
	domain.EventHardError,
}

// CallbackNotifier posts selected reconciliation events to a merchant
// callback URL. Other event types are dropped.
type CallbackNotifier struct {
	CallbackURL string
	Client      *http.Client
	types       map[domain.EventType]bool
}

func NewCallbackNotifier(callbackURL string, types []string, timeout time.Duration) *CallbackNotifier {
	selected := make(map[domain.EventType]bool)
	for _, t := range types {
		selected[domain.EventType(t)] = true
	}
	if len(selected) == 0 {
		for _, t := range DefaultEventTypes {
			selected[t] = true
		}
	}
	return &CallbackNotifier{
		CallbackURL: callbackURL,
		Client:      &http.Client{Timeout: timeout},
		types:       selected,
	}
}

func (n *CallbackNotifier) Publish(ctx context.Context, event domain.ReconciliationEvent) error {
	if !n.types[event.Type] {
		return nil
	}

	body, err := json.Marshal(CallbackPayload{
		EventID:       event.EventID,
		OrderID:       event.OrderID,
		Event:         string(event.Type),
		PaymentStatus: string(event.PaymentStatus),
		TxID:          event.TxID,
		Code:          string(event.Code),
		OccurredAt:    event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("callback for order %s failed: %w", event.OrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback for order %s returned status %d", event.OrderID, resp.StatusCode)
	}
	slog.Debug("callback sent", "order_id", event.OrderID, "event", event.Type)
	return nil
}
