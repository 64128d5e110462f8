package retry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/balance"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/ordersync"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/paymentsync"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
)

const DefaultMaxRetryCount = 3

// RetryUsecase replays the operation recorded on orders with a transient
// error.
type RetryUsecase interface {
	Run(ctx context.Context) error
	RetryOrder(ctx context.Context, order *domain.Order) error
}

type DefaultRetryUsecase struct {
	Store       *recon.Store
	Resolver    balance.Resolver
	OrderSync   ordersync.OrderSyncUsecase
	PaymentSync paymentsync.PaymentSyncUsecase
	Metrics     *metrics.ReconMetrics
	// MaxRetryCount is the number of replays before the error turns hard.
	MaxRetryCount int
}

func NewDefaultRetryUsecase(
	store *recon.Store,
	resolver balance.Resolver,
	orderSync ordersync.OrderSyncUsecase,
	paymentSync paymentsync.PaymentSyncUsecase,
	m *metrics.ReconMetrics,
	maxRetryCount int,
) *DefaultRetryUsecase {
	if maxRetryCount <= 0 {
		maxRetryCount = DefaultMaxRetryCount
	}
	return &DefaultRetryUsecase{
		Store:         store,
		Resolver:      resolver,
		OrderSync:     orderSync,
		PaymentSync:   paymentSync,
		Metrics:       m,
		MaxRetryCount: maxRetryCount,
	}
}

func (uc *DefaultRetryUsecase) Run(ctx context.Context) error {
	const job = domain.SourceRetryCron
	slog.Info("looking for orders with transient errors", "job", job)

	orders, err := uc.Store.Orders.FindOrders(ctx, domain.OrderFilter{TransientError: domain.BoolPtr(true)})
	if err != nil {
		return fmt.Errorf("find orders with transient errors: %w", err)
	}
	for _, order := range orders {
		uc.Metrics.RecordOrderVisited(string(job))
		if err := uc.RetryOrder(ctx, order); err != nil {
			slog.Error("retry failed", "job", job, "order_id", order.ID, "error", err.Error())
		}
	}
	return nil
}

// RetryOrder counts one attempt and dispatches on the stored retry action.
func (uc *DefaultRetryUsecase) RetryOrder(ctx context.Context, order *domain.Order) error {
	const job = domain.SourceRetryCron

	rec, err := uc.Store.Record(ctx, order.ID)
	if err != nil {
		return err
	}
	if !rec.TransientError || rec.HardError {
		return nil
	}
	slog.Info("starting retry action", "job", job, "order_id", order.ID, "retry_action", domain.RetryActionName(rec.RetryAction))

	count, err := uc.Store.Records.IncrementRetryCount(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("increment retry count of %s: %w", order.ID, err)
	}
	if count > uc.MaxRetryCount {
		if !settlementError(rec) {
			return uc.Store.MarkHard(ctx, job, order.ID, domain.CodeRetryExhausted,
				fmt.Sprintf("retry count %d exceeded the limit of %d", count, uc.MaxRetryCount))
		}
		// The merchant is owed the funds: settlement keeps being retried.
		slog.Warn("settlement still failing past the retry limit",
			"job", job,
			"order_id", order.ID,
			"code", rec.ErrorCode,
			"retry_count", count,
		)
	}

	switch rec.RetryAction.(type) {
	case domain.SyncOrderAction:
		return uc.OrderSync.SyncOrder(ctx, order, job)
	case domain.SyncPaymentAction:
		// No payload is at hand here, so the payment is refetched.
		return uc.PaymentSync.SyncPayment(ctx, nil, order.ID, job)
	case domain.SettleAction:
		info, ok := uc.resolve(ctx, order)
		if !ok {
			return nil
		}
		return uc.OrderSync.Settle(ctx, order, info, job)
	case domain.RefundAction:
		info, ok := uc.resolve(ctx, order)
		if !ok {
			return nil
		}
		return uc.OrderSync.Refund(ctx, order, info, job)
	}
	return nil
}

// settlementError reports whether rec holds a failed settlement, which is
// never escalated to a hard error.
func settlementError(rec *domain.ReconciliationRecord) bool {
	switch rec.ErrorCode {
	case domain.CodeSettleDispatch, domain.CodeSettleVerify:
		return true
	}
	return domain.IsRetryAction(rec.RetryAction, domain.RetrySettle)
}

func (uc *DefaultRetryUsecase) resolve(ctx context.Context, order *domain.Order) (*domain.PaymentInfo, bool) {
	info, err := uc.Resolver.Resolve(ctx, order, nil)
	if err != nil {
		slog.Info("token balance error", "job", domain.SourceRetryCron, "order_id", order.ID, "code", domain.ResolveCode(err), "error", err.Error())
		return nil, false
	}
	return info, true
}
