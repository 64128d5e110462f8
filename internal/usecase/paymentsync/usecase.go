package paymentsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/balance"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

const (
	watermarkLookback = 24 * time.Hour
	sortByUpdatedAt   = "updatedAt"
	sortAscending     = "ascending"
)

// PaymentSyncUsecase matches remote payments to pending orders.
type PaymentSyncUsecase interface {
	Run(ctx context.Context) error
	// SyncPayment with a nil payment refetches the snapshot by order id.
	SyncPayment(ctx context.Context, payment *domain.Payment, paymentID string, job domain.DataSource) error
}

type DefaultPaymentSyncUsecase struct {
	Store    *recon.Store
	Gateway  domain.PaymentGateway
	Resolver balance.Resolver
	Metrics  *metrics.ReconMetrics
	// CollisionWindow is how long an order written by the orders job is
	// left alone by this job.
	CollisionWindow time.Duration

	Now func() time.Time
}

func NewDefaultPaymentSyncUsecase(
	store *recon.Store,
	gateway domain.PaymentGateway,
	resolver balance.Resolver,
	m *metrics.ReconMetrics,
	collisionWindow time.Duration,
) *DefaultPaymentSyncUsecase {
	return &DefaultPaymentSyncUsecase{
		Store:           store,
		Gateway:         gateway,
		Resolver:        resolver,
		Metrics:         m,
		CollisionWindow: collisionWindow,
		Now:             time.Now,
	}
}

// Run is one payments-cron pass over the payments changed since the
// watermark, oldest first.
func (uc *DefaultPaymentSyncUsecase) Run(ctx context.Context) error {
	const job = domain.SourcePaymentsCron

	since, found, err := uc.Store.Records.GetCronWatermark(ctx, domain.WatermarkPayments)
	if err != nil {
		return fmt.Errorf("load %s watermark: %w", domain.WatermarkPayments, err)
	}
	if !found {
		since = uc.Now().Add(-watermarkLookback)
	}
	slog.Info("looking for payments modified after", "job", job, "since", since)

	var (
		latest    int64
		nextToken string
	)
	for {
		page, err := uc.Gateway.ListPayments(ctx, domain.PaymentListQuery{
			NextToken: nextToken,
			SortBy:    sortByUpdatedAt,
			SortOrder: sortAscending,
			StartAt:   since.Unix(),
		})
		if err != nil {
			// Nothing is lost: the watermark only covers finished passes.
			slog.Info("listPayments request failed, exiting payments-cron", "job", job, "error", err.Error())
			return nil
		}

		for i := range page.Results {
			payment := &page.Results[i]
			if payment.UpdatedAt > latest {
				latest = payment.UpdatedAt
			}
			uc.Metrics.RecordOrderVisited(string(job))
			if err := uc.SyncPayment(ctx, payment, payment.ID, job); err != nil {
				slog.Error("syncPayment failed", "job", job, "payment_id", payment.ID, "error", err.Error())
			}
		}

		if page.NextToken == "" {
			break
		}
		if page.NextToken == nextToken {
			return fmt.Errorf("payment listing repeats continuation token %q", nextToken)
		}
		nextToken = page.NextToken
	}

	if latest > 0 {
		next := time.Unix(latest+1, 0).UTC()
		if err := uc.Store.Records.SetCronWatermark(ctx, domain.WatermarkPayments, next); err != nil {
			return fmt.Errorf("store %s watermark: %w", domain.WatermarkPayments, err)
		}
		uc.Metrics.RecordWatermark(string(domain.WatermarkPayments), float64(next.Unix()))
		slog.Info("watermark advanced", "job", job, "name", domain.WatermarkPayments, "value", next)
	}
	return nil
}

func (uc *DefaultPaymentSyncUsecase) SyncPayment(ctx context.Context, payment *domain.Payment, paymentID string, job domain.DataSource) error {
	order, err := uc.Store.Orders.GetPendingOrder(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("find pending order %s: %w", paymentID, err)
	}
	if order == nil {
		slog.Debug("no pending order for payment", "job", job, "payment_id", paymentID)
		if job == domain.SourceRetryCron {
			// The order left the pending states, so there is nothing left to replay.
			return uc.healReplay(ctx, paymentID)
		}
		return nil
	}

	rec, err := uc.Store.Record(ctx, order.ID)
	if err != nil {
		return err
	}
	if reason := recon.GuardSkip(rec, domain.RetrySyncPayment); reason != "" {
		uc.Store.Skip(job, order.ID, reason)
		return nil
	}
	if rec.PaymentStatus.Dispatched() {
		uc.Store.Skip(job, order.ID, recon.SkipDispatched)
		return nil
	}

	if job == domain.SourcePaymentsCron &&
		rec.RecentlyWrittenBy(domain.SourceOrdersCron, order, uc.Now(), uc.CollisionWindow) {
		uc.Store.Skip(job, order.ID, recon.SkipCollision)
		return uc.Store.MarkTransient(ctx, job, order.ID, domain.RetrySyncPayment, domain.CodePaymentSyncCollision,
			"skipping payment processing as orders-cron processed this order recently, will be retried")
	}

	if payment != nil {
		if err := uc.snapshotAddresses(ctx, order.ID, payment.Addresses); err != nil {
			return err
		}
	}

	info, err := uc.Resolver.Resolve(ctx, order, payment)
	switch {
	case errors.Is(err, domain.ErrMultiTokenPayment):
		slog.Info("more than one token balance found", "job", job, "order_id", order.ID)
		if err := uc.Store.MarkMultitoken(ctx, job, order); err != nil {
			return err
		}
		return uc.Store.Heal(ctx, job, rec)
	case err != nil:
		slog.Info("get token balance error", "job", job, "order_id", order.ID, "code", domain.ResolveCode(err), "error", err.Error())
		return nil
	}

	if order.Status == domain.StatusMultitoken {
		if _, err := uc.Store.Transition(ctx, order, domain.TransitionSingletoken); err != nil {
			return err
		}
	}

	received, err := uc.Store.MarkPaymentReceived(ctx, job, order, info)
	if err != nil {
		return err
	}
	if received {
		slog.Info("order set to fulfillment", "job", job, "order_id", order.ID)
	}
	return uc.Store.Heal(ctx, job, rec)
}

func (uc *DefaultPaymentSyncUsecase) healReplay(ctx context.Context, orderID string) error {
	rec, err := uc.Store.Record(ctx, orderID)
	if err != nil {
		return err
	}
	if rec.HardError || !domain.IsRetryAction(rec.RetryAction, domain.RetrySyncPayment) {
		return nil
	}
	return uc.Store.Heal(ctx, domain.SourceRetryCron, rec)
}

func (uc *DefaultPaymentSyncUsecase) snapshotAddresses(ctx context.Context, orderID string, addresses domain.Addresses) error {
	raw, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("encode addresses of %s: %w", orderID, err)
	}
	return uc.Store.Update(ctx, orderID, domain.RecordUpdate{Addresses: domain.StringPtr(string(raw))})
}
