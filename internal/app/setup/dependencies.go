package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/bleumipay"
	publisher "github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/redislock"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/tracing"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/events"
	"github.com/LavaJover/shvark-bleumipay-service/internal/usecase/jobs"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.BleumiConfig
	DB           *gorm.DB
	Metrics      *metrics.ReconMetrics
	Gateway      domain.PaymentGateway
	Publisher    domain.EventPublisher
	Locker       jobs.Locker
	Repositories *Repositories

	closers []func()
}

type Repositories struct {
	OrderRepo domain.OrderRepository
	ReconRepo domain.ReconciliationRepository
}

// InitializeDependencies opens every outbound connection. On failure the
// connections opened so far are closed.
func InitializeDependencies(cfg *config.BleumiConfig) (_ *Dependencies, err error) {
	deps := &Dependencies{Config: cfg}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracerProvider(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			return nil, fmt.Errorf("tracer: %w", err)
		}
		deps.closers = append(deps.closers, func() { tracing.Shutdown(tp) })
	}

	db, err := postgres.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	deps.DB = db
	if !cfg.ReconDB.AutoMigrate {
		if err := migrate.RunMigrations(db, cfg.ReconDB.Driver, cfg.ReconDB.MigrationsPath); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	deps.closers = append(deps.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	deps.Metrics = metrics.NewReconMetrics(nil)
	deps.Repositories = &Repositories{
		OrderRepo: repository.NewDefaultOrderRepository(db),
		ReconRepo: repository.NewDefaultReconciliationRepository(db),
	}

	gateway, err := initGateway(cfg, deps.Metrics)
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}
	deps.Gateway = gateway

	deps.Publisher = deps.initPublisher(cfg)

	locker, err := deps.initLocker(cfg)
	if err != nil {
		return nil, fmt.Errorf("cron locker: %w", err)
	}
	deps.Locker = locker

	return deps, nil
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func initGateway(cfg *config.BleumiConfig, m *metrics.ReconMetrics) (domain.PaymentGateway, error) {
	if cfg.BleumiPay.APIKey == "" {
		slog.Warn("bleumipay api key is empty, every payment api call will be rejected")
	}
	client := bleumipay.NewClient(cfg.BleumiPay, m)
	return bleumipay.NewTokenCache(client, cfg.BleumiPay.TokenCacheSize, cfg.BleumiPay.TokenCacheTTL, m)
}

// initPublisher always keeps the audit log in the database and adds kafka
// and the merchant callback when they are enabled.
func (d *Dependencies) initPublisher(cfg *config.BleumiConfig) domain.EventPublisher {
	fanout := events.Fanout{logger.NewPGEventLogger(d.DB)}
	if cfg.KafkaService.Enabled {
		brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
		kafkaPublisher := publisher.NewKafkaPublisher(brokers, cfg.KafkaService.Topic)
		d.closers = append(d.closers, func() {
			if err := kafkaPublisher.Close(); err != nil {
				slog.Error("failed to close kafka writer", "error", err.Error())
			}
		})
		fanout = append(fanout, kafkaPublisher)
	}
	if cfg.Notifier.Enabled {
		if cfg.Notifier.CallbackURL == "" {
			slog.Warn("notifier enabled without callback url, skipping")
		} else {
			fanout = append(fanout, notifier.NewCallbackNotifier(cfg.Notifier.CallbackURL, cfg.Notifier.EventTypes, cfg.Notifier.Timeout))
		}
	}
	return fanout
}

func (d *Dependencies) initLocker(cfg *config.BleumiConfig) (jobs.Locker, error) {
	if !cfg.Redis.Enabled {
		return jobs.NewLocalLocker(), nil
	}
	client, err := redislock.NewClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() { client.Close() })
	return redislock.NewLocker(client, cfg.Redis.LockTTL), nil
}
