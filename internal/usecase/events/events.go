package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/google/uuid"
)

// Fanout publishes every event to each sink in turn and joins their errors.
type Fanout []domain.EventPublisher

func (f Fanout) Publish(ctx context.Context, event domain.ReconciliationEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit stamps event with an id and a timestamp, publishes it and only logs
// a failure: reconciliation never stops because the audit trail is
// unavailable. Every sink sees the same event id.
func Emit(ctx context.Context, pub domain.EventPublisher, event domain.ReconciliationEvent) {
	if pub == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := pub.Publish(ctx, event); err != nil {
		slog.Error("failed to publish reconciliation event",
			"order_id", event.OrderID,
			"type", event.Type,
			"error", err.Error(),
		)
	}
}

// Recorder is an in-memory publisher for tests.
type Recorder struct {
	Events []domain.ReconciliationEvent
}

func (r *Recorder) Publish(_ context.Context, event domain.ReconciliationEvent) error {
	r.Events = append(r.Events, event)
	return nil
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []domain.EventType {
	types := make([]domain.EventType, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
