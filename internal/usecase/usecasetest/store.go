package usecasetest

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/repository"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles the gorm repositories over a private in-memory sqlite db.
type Store struct {
	DB      *gorm.DB
	Orders  *repository.DefaultOrderRepository
	Records *repository.DefaultReconciliationRepository
}

func NewStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(postgres.Models()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return &Store{
		DB:      db,
		Orders:  repository.NewDefaultOrderRepository(db),
		Records: repository.NewDefaultReconciliationRepository(db),
	}
}

// Seed creates a USD order with its reconciliation record.
func (s *Store) Seed(t *testing.T, id string, status domain.OrderStatus, total int64, updatedAt time.Time) *domain.Order {
	t.Helper()
	ctx := context.Background()
	order := &domain.Order{
		ID:             id,
		Status:         status,
		TotalAmount:    decimal.NewFromInt(total),
		Currency:       "USD",
		PaymentGateway: domain.GatewayBleumiPay,
		CreatedAt:      updatedAt.UTC(),
		UpdatedAt:      updatedAt.UTC(),
	}
	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		t.Fatalf("create order %s: %v", id, err)
	}
	if err := s.Records.CreateRecord(ctx, id); err != nil {
		t.Fatalf("create record %s: %v", id, err)
	}
	return order
}

func (s *Store) Record(t *testing.T, id string) *domain.ReconciliationRecord {
	t.Helper()
	rec, err := s.Records.GetRecord(context.Background(), id)
	if err != nil {
		t.Fatalf("get record %s: %v", id, err)
	}
	return rec
}

func (s *Store) Order(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := s.Orders.GetOrderByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get order %s: %v", id, err)
	}
	return order
}

func (s *Store) Update(t *testing.T, id string, update domain.RecordUpdate) {
	t.Helper()
	if err := s.Records.UpdateRecord(context.Background(), id, update); err != nil {
		t.Fatalf("update record %s: %v", id, err)
	}
}
