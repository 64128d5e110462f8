package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/events"
)

// Skip reasons of the per-order guard chain.
const (
	SkipHardError           = "hard_error"
	SkipRetryActionMismatch = "retry_action_mismatch"
	SkipProcessingCompleted = "processing_completed"
	SkipInProgress          = "operation_in_progress"
	SkipDispatched          = "already_dispatched"
	SkipCollision           = "collision"
)

// Store is the write path shared by the sync engines: every record mutation
// is logged, counted and published from here.
type Store struct {
	Orders    domain.OrderRepository
	Records   domain.ReconciliationRepository
	Publisher domain.EventPublisher
	Metrics   *metrics.ReconMetrics
}

func NewStore(orders domain.OrderRepository, records domain.ReconciliationRepository, pub domain.EventPublisher, m *metrics.ReconMetrics) *Store {
	return &Store{Orders: orders, Records: records, Publisher: pub, Metrics: m}
}

// Record loads the record of an order. A record never written yet reads as
// a fresh one; the first write creates it.
func (s *Store) Record(ctx context.Context, orderID string) (*domain.ReconciliationRecord, error) {
	rec, err := s.Records.GetRecord(ctx, orderID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return &domain.ReconciliationRecord{OrderID: orderID, PaymentStatus: domain.PaymentStatusNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", orderID, err)
	}
	return rec, nil
}

// GuardSkip runs the guard chain shared by every per-order sync and returns
// the reason to skip, or "" when the order may be processed. own is the
// retry action of the calling operation.
func GuardSkip(rec *domain.ReconciliationRecord, own domain.RetryAction) string {
	switch {
	case rec.HardError:
		return SkipHardError
	case rec.TransientError && !domain.IsRetryAction(rec.RetryAction, own):
		return SkipRetryActionMismatch
	case rec.ProcessingCompleted:
		return SkipProcessingCompleted
	case rec.PaymentStatus.InProgress():
		return SkipInProgress
	}
	return ""
}

// InertReason names the guard that keeps an inert record out of a pass.
func InertReason(rec *domain.ReconciliationRecord) string {
	if rec.HardError {
		return SkipHardError
	}
	return SkipProcessingCompleted
}

func (s *Store) Skip(job domain.DataSource, orderID, reason string) {
	slog.Info("skipping order", "job", job, "order_id", orderID, "reason", reason)
	s.Metrics.RecordSkip(string(job), reason)
}

func (s *Store) Update(ctx context.Context, orderID string, update domain.RecordUpdate) error {
	if err := s.Records.UpdateRecord(ctx, orderID, update); err != nil {
		return fmt.Errorf("update record %s: %w", orderID, err)
	}
	return nil
}

func (s *Store) MarkTransient(ctx context.Context, job domain.DataSource, orderID string, action domain.RetryAction, code domain.ErrorCode, msg string) error {
	slog.Warn("transient reconciliation error",
		"job", job,
		"order_id", orderID,
		"retry_action", domain.RetryActionName(action),
		"code", code,
		"message", msg,
	)
	if err := s.Records.MarkTransientError(ctx, orderID, action, code, msg); err != nil {
		return fmt.Errorf("mark transient error %s on %s: %w", code, orderID, err)
	}
	s.Metrics.RecordError("transient", string(code))
	return nil
}

func (s *Store) MarkHard(ctx context.Context, job domain.DataSource, orderID string, code domain.ErrorCode, msg string) error {
	slog.Error("hard reconciliation error",
		"job", job,
		"order_id", orderID,
		"code", code,
		"message", msg,
	)
	if err := s.Records.MarkHardError(ctx, orderID, code, msg); err != nil {
		return fmt.Errorf("mark hard error %s on %s: %w", code, orderID, err)
	}
	s.Metrics.RecordError("hard", string(code))
	s.Emit(ctx, domain.ReconciliationEvent{OrderID: orderID, Type: domain.EventHardError, Job: job, Code: code})
	return nil
}

func (s *Store) ClearTransient(ctx context.Context, orderID string) error {
	if err := s.Records.ClearTransientError(ctx, orderID); err != nil {
		return fmt.Errorf("clear transient error on %s: %w", orderID, err)
	}
	return nil
}

// Heal clears the transient error rec carried into an operation that has
// now gone through, so the retry job stops replaying it.
func (s *Store) Heal(ctx context.Context, job domain.DataSource, rec *domain.ReconciliationRecord) error {
	if !rec.TransientError {
		return nil
	}
	if err := s.ClearTransient(ctx, rec.OrderID); err != nil {
		return err
	}
	slog.Info("transient error cleared",
		"job", job,
		"order_id", rec.OrderID,
		"retry_action", domain.RetryActionName(rec.RetryAction),
		"code", rec.ErrorCode,
	)
	rec.TransientError = false
	return nil
}

// Transition applies t and logs whether it took effect. An illegal
// transition is not an error.
func (s *Store) Transition(ctx context.Context, order *domain.Order, t domain.Transition) (bool, error) {
	from := order.Status
	applied, err := s.Orders.ApplyTransition(ctx, order, t)
	if err != nil {
		return false, err
	}
	if applied {
		slog.Info("order transition applied", "order_id", order.ID, "transition", t, "from", from, "to", order.Status)
	} else {
		slog.Info("order transition not applicable", "order_id", order.ID, "transition", t, "status", from)
	}
	return applied, nil
}

// MarkMultitoken routes an order whose payment holds several tokens to the
// multitoken status.
func (s *Store) MarkMultitoken(ctx context.Context, job domain.DataSource, order *domain.Order) error {
	applied, err := s.Transition(ctx, order, domain.TransitionMultitoken)
	if err != nil {
		return err
	}
	if applied {
		s.Emit(ctx, domain.ReconciliationEvent{OrderID: order.ID, Type: domain.EventMultitoken, Job: job})
	}
	return nil
}

// MarkPaymentReceived moves the order to fulfillment once the resolved
// balance covers its total. It reports whether the balance was sufficient.
func (s *Store) MarkPaymentReceived(ctx context.Context, job domain.DataSource, order *domain.Order, info *domain.PaymentInfo) (bool, error) {
	amount := info.Amount()
	if !amount.IsPositive() || amount.LessThan(order.TotalAmount) {
		slog.Info("payment does not cover order total",
			"job", job,
			"order_id", order.ID,
			"amount", amount.String(),
			"total", order.TotalAmount.String(),
		)
		return false, nil
	}

	if _, err := s.Transition(ctx, order, domain.TransitionProcess); err != nil {
		return false, err
	}
	err := s.Update(ctx, order.ID, domain.RecordUpdate{
		ProcessingCompleted: domain.BoolPtr(false),
		PaymentStatus:       domain.PaymentStatusPtr(domain.PaymentStatusReceived),
		DataSource:          domain.DataSourcePtr(job),
	})
	if err != nil {
		return false, err
	}
	s.Emit(ctx, domain.ReconciliationEvent{
		OrderID:       order.ID,
		Type:          domain.EventPaymentReceived,
		PaymentStatus: domain.PaymentStatusReceived,
		Job:           job,
	})
	return true, nil
}

func (s *Store) Emit(ctx context.Context, event domain.ReconciliationEvent) {
	events.Emit(ctx, s.Publisher, event)
}
