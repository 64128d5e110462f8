package setup

import (
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/balance"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/checkout"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/ordersync"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/paymentsync"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/recon"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/retry"
)

type UseCases struct {
	OrderSyncUsecase   ordersync.OrderSyncUsecase
	PaymentSyncUsecase paymentsync.PaymentSyncUsecase
	RetryUsecase       retry.RetryUsecase
	CheckoutUsecase    checkout.CheckoutUsecase
	Runner             *jobs.Runner
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cron := deps.Config.Cron
	store := recon.NewStore(deps.Repositories.OrderRepo, deps.Repositories.ReconRepo, deps.Publisher, deps.Metrics)
	resolver := balance.NewDefaultResolver(deps.Gateway)

	orderSync := ordersync.NewDefaultOrderSyncUsecase(store, deps.Gateway, resolver, deps.Metrics, ordersync.Config{
		CollisionWindow:     cron.CollisionSafeWindow,
		AwaitPaymentTimeout: cron.AwaitPaymentTimeout,
		RateLimitDelay:      cron.RateLimitDelay,
	})
	paymentSync := paymentsync.NewDefaultPaymentSyncUsecase(store, deps.Gateway, resolver, deps.Metrics, cron.CollisionSafeWindow)
	retryUsecase := retry.NewDefaultRetryUsecase(store, resolver, orderSync, paymentSync, deps.Metrics, cron.MaxRetryCount)
	checkoutUsecase := checkout.NewDefaultCheckoutUsecase(store, deps.Gateway)

	runner, err := jobs.NewRunner(orderSync, paymentSync, retryUsecase, deps.Locker, deps.Metrics)
	if err != nil {
		return nil, err
	}

	return &UseCases{
		OrderSyncUsecase:   orderSync,
		PaymentSyncUsecase: paymentSync,
		RetryUsecase:       retryUsecase,
		CheckoutUsecase:    checkoutUsecase,
		Runner:             runner,
	}, nil
}
