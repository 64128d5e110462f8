package ordersync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

// SyncOrder evaluates one order. Gateway failures are logged or persisted
// on the record; only store failures are returned.
func (uc *DefaultOrderSyncUsecase) SyncOrder(ctx context.Context, order *domain.Order, job domain.DataSource) error {
	if order == nil || order.ID == "" {
		return nil
	}
	slog.Info("syncOrder", "job", job, "order_id", order.ID, "status", order.Status)

	rec, err := uc.Store.Record(ctx, order.ID)
	if err != nil {
		return err
	}
	if reason := recon.GuardSkip(rec, domain.RetrySyncOrder); reason != "" {
		uc.Store.Skip(job, order.ID, reason)
		return nil
	}

	if job == domain.SourceOrdersCron &&
		rec.RecentlyWrittenBy(domain.SourcePaymentsCron, order, uc.Now(), uc.Config.CollisionWindow) {
		uc.Store.Skip(job, order.ID, recon.SkipCollision)
		return uc.Store.MarkTransient(ctx, job, order.ID, domain.RetrySyncOrder, domain.CodeOrderSyncCollision,
			"skipping syncOrder as payments-cron updated this order recently, will be retried")
	}

	info, err := uc.Resolver.Resolve(ctx, order, nil)
	switch {
	case errors.Is(err, domain.ErrMultiTokenPayment):
		slog.Info("more than one token balance found", "job", job, "order_id", order.ID)
		if err := uc.Store.MarkMultitoken(ctx, job, order); err != nil {
			return err
		}
		return uc.Store.Heal(ctx, job, rec)
	case err != nil:
		slog.Info("token balance error", "job", job, "order_id", order.ID, "code", domain.ResolveCode(err), "error", err.Error())
		return nil
	}

	if order.Status == domain.StatusMultitoken {
		if _, err := uc.Store.Transition(ctx, order, domain.TransitionSingletoken); err != nil {
			return err
		}
		if _, err := uc.Store.MarkPaymentReceived(ctx, job, order, info); err != nil {
			return err
		}
	}

	if !info.Amount().IsPositive() {
		slog.Info("payment is blank", "job", job, "order_id", order.ID)
		return uc.Store.Heal(ctx, job, rec)
	}

	switch order.Status {
	case domain.StatusCompleted:
		return uc.Settle(ctx, order, info, job)
	case domain.StatusCanceled:
		return uc.Refund(ctx, order, info, job)
	default:
		slog.Info("unhandled order status", "job", job, "order_id", order.ID, "status", order.Status)
		return uc.Store.Heal(ctx, job, rec)
	}
}
