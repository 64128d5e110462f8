package ordersync

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

type verifyOutcome struct {
	inProgress domain.PaymentStatus
	done       domain.PaymentStatus
	failed     domain.PaymentStatus
	doneEvent  domain.EventType
	failEvent  domain.EventType
}

var verifyOutcomes = map[string]verifyOutcome{
	domain.RetrySettle.Name(): {
		inProgress: domain.PaymentStatusSettleInProgress,
		done:       domain.PaymentStatusSettled,
		failed:     domain.PaymentStatusSettleFailed,
		doneEvent:  domain.EventSettled,
		failEvent:  domain.EventSettleFailed,
	},
	domain.RetryRefund.Name(): {
		inProgress: domain.PaymentStatusRefundInProgress,
		done:       domain.PaymentStatusRefunded,
		failed:     domain.PaymentStatusRefundFailed,
		doneEvent:  domain.EventRefunded,
		failEvent:  domain.EventRefundFailed,
	},
}

// VerifyOperations checks every order whose settle (or refund) is in
// progress against the on-chain state of its dispatched operation.
func (uc *DefaultOrderSyncUsecase) VerifyOperations(ctx context.Context, op domain.RetryAction, job domain.DataSource) {
	outcome, ok := verifyOutcomes[domain.RetryActionName(op)]
	if !ok {
		return
	}

	orders, err := uc.Store.Orders.FindOrders(ctx, domain.OrderFilter{PaymentStatus: &outcome.inProgress})
	if err != nil {
		slog.Error("failed to find orders to verify", "job", job, "operation", op.Name(), "error", err.Error())
		return
	}
	for _, order := range orders {
		if err := uc.verifyOrder(ctx, order, op, outcome, job); err != nil {
			slog.Error("verify operation failed", "job", job, "order_id", order.ID, "operation", op.Name(), "error", err.Error())
		}
	}
}

func (uc *DefaultOrderSyncUsecase) verifyOrder(ctx context.Context, order *domain.Order, op domain.RetryAction, outcome verifyOutcome, job domain.DataSource) error {
	rec, err := uc.Store.Record(ctx, order.ID)
	if err != nil {
		return err
	}
	if rec.Inert() {
		uc.Store.Skip(job, order.ID, recon.InertReason(rec))
		return nil
	}
	if rec.TxID == "" {
		slog.Info("tx-id is not set", "job", job, "order_id", order.ID)
		return nil
	}

	operation, err := uc.Gateway.GetPaymentOperation(ctx, order.ID, rec.TxID)
	if err != nil {
		slog.Info("getPaymentOperation request failed", "job", job, "order_id", order.ID, "txid", rec.TxID, "error", err.Error())
		return nil
	}
	if operation.Status == domain.OperationPending {
		uc.Metrics.RecordVerify(op.Name(), "pending")
		return nil
	}

	update := domain.RecordUpdate{DataSource: domain.DataSourcePtr(job)}
	if operation.Status == domain.OperationConfirmed {
		update.PaymentStatus = domain.PaymentStatusPtr(outcome.done)
		if domain.IsRetryAction(op, domain.RetrySettle) {
			update.ProcessingCompleted = domain.BoolPtr(true)
		}
		if err := uc.Store.Update(ctx, order.ID, update); err != nil {
			return err
		}
		uc.Metrics.RecordVerify(op.Name(), "confirmed")
		slog.Info("payment operation confirmed", "job", job, "order_id", order.ID, "txid", rec.TxID, "hash", operation.Hash, "chain", operation.Chain)
		uc.Store.Emit(ctx, domain.ReconciliationEvent{
			OrderID:       order.ID,
			Type:          outcome.doneEvent,
			PaymentStatus: outcome.done,
			TxID:          rec.TxID,
			Job:           job,
		})
		return nil
	}

	update.PaymentStatus = domain.PaymentStatusPtr(outcome.failed)
	if err := uc.Store.Update(ctx, order.ID, update); err != nil {
		return err
	}
	uc.Metrics.RecordVerify(op.Name(), "failed")
	uc.Store.Emit(ctx, domain.ReconciliationEvent{
		OrderID:       order.ID,
		Type:          outcome.failEvent,
		PaymentStatus: outcome.failed,
		TxID:          rec.TxID,
		Job:           job,
	})

	const msg = "payment operation failed"
	if domain.IsRetryAction(op, domain.RetryRefund) {
		// Customer funds are at stake: a refund is never replayed blindly.
		return uc.Store.MarkHard(ctx, job, order.ID, domain.CodeRefundVerify, msg)
	}
	action := rec.RetryAction
	if action == nil {
		action = domain.RetrySettle
	}
	return uc.Store.MarkTransient(ctx, job, order.ID, action, domain.CodeSettleVerify, msg)
}
