package ordersync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/balance"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

const watermarkLookback = 24 * time.Hour

// OrderSyncUsecase drives orders through settle and refund from the store
// side and verifies dispatched operations.
type OrderSyncUsecase interface {
	Run(ctx context.Context) error
	SyncOrder(ctx context.Context, order *domain.Order, job domain.DataSource) error
	Settle(ctx context.Context, order *domain.Order, info *domain.PaymentInfo, job domain.DataSource) error
	Refund(ctx context.Context, order *domain.Order, info *domain.PaymentInfo, job domain.DataSource) error
}

type Config struct {
	// CollisionWindow is how long an order written by the payments job is
	// left alone by this job.
	CollisionWindow     time.Duration
	AwaitPaymentTimeout time.Duration
	RateLimitDelay      time.Duration
}

type DefaultOrderSyncUsecase struct {
	Store    *recon.Store
	Gateway  domain.PaymentGateway
	Resolver balance.Resolver
	Metrics  *metrics.ReconMetrics
	Config   Config

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewDefaultOrderSyncUsecase(
	store *recon.Store,
	gateway domain.PaymentGateway,
	resolver balance.Resolver,
	m *metrics.ReconMetrics,
	cfg Config,
) *DefaultOrderSyncUsecase {
	return &DefaultOrderSyncUsecase{
		Store:    store,
		Gateway:  gateway,
		Resolver: resolver,
		Metrics:  m,
		Config:   cfg,
		Now:      time.Now,
		Sleep:    sleepContext,
	}
}

// Run is one orders-cron pass: sync the orders changed since the watermark,
// then verify in-flight operations and run the sweeps.
func (uc *DefaultOrderSyncUsecase) Run(ctx context.Context) error {
	const job = domain.SourceOrdersCron

	now := uc.Now().UTC()
	since, found, err := uc.Store.Records.GetCronWatermark(ctx, domain.WatermarkOrders)
	if err != nil {
		return fmt.Errorf("load %s watermark: %w", domain.WatermarkOrders, err)
	}
	if !found {
		since = now.Add(-watermarkLookback)
	}
	slog.Info("looking for orders modified after", "job", job, "since", since)

	orders, err := uc.Store.Orders.GetOrdersChangedSince(ctx, since, now)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		slog.Info("no updated order found", "job", job)
	}

	var latest time.Time
	for _, order := range orders {
		if order.ModifiedAt().After(latest) {
			latest = order.ModifiedAt()
		}
		uc.Metrics.RecordOrderVisited(string(job))
		if err := uc.SyncOrder(ctx, order, job); err != nil {
			slog.Error("syncOrder failed", "job", job, "order_id", order.ID, "error", err.Error())
		}
	}

	if !latest.IsZero() {
		next := latest.Truncate(time.Second).Add(time.Second)
		if err := uc.Store.Records.SetCronWatermark(ctx, domain.WatermarkOrders, next); err != nil {
			return fmt.Errorf("store %s watermark: %w", domain.WatermarkOrders, err)
		}
		uc.Metrics.RecordWatermark(string(domain.WatermarkOrders), float64(next.Unix()))
		slog.Info("watermark advanced", "job", job, "name", domain.WatermarkOrders, "value", next)
	}

	uc.VerifyOperations(ctx, domain.RetrySettle, job)
	uc.FailUnpaidOrders(ctx, job)
	uc.VerifyOperations(ctx, domain.RetryRefund, job)
	uc.VerifyCompleteRefunds(ctx, job)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
