package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedOrder(t *testing.T, repo *DefaultOrderRepository, id string, status domain.OrderStatus, updatedAt time.Time) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:             id,
		Status:         status,
		TotalAmount:    decimal.NewFromInt(100),
		Currency:       "USD",
		PaymentGateway: "bleumi_pay",
		CreatedAt:      updatedAt,
		UpdatedAt:      updatedAt,
	}
	if err := repo.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("create order %s: %v", id, err)
	}
	return order
}

func TestReconciliationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultReconciliationRepository(newTestDB(t))

	t.Run("create is idempotent", func(t *testing.T) {
		if err := repo.CreateRecord(ctx, "o-1"); err != nil {
			t.Fatalf("CreateRecord() error = %v", err)
		}
		if err := repo.UpdateRecord(ctx, "o-1", domain.RecordUpdate{TxID: domain.StringPtr("tx-1")}); err != nil {
			t.Fatalf("UpdateRecord() error = %v", err)
		}
		if err := repo.CreateRecord(ctx, "o-1"); err != nil {
			t.Fatalf("second CreateRecord() error = %v", err)
		}
		record, err := repo.GetRecord(ctx, "o-1")
		if err != nil {
			t.Fatalf("GetRecord() error = %v", err)
		}
		if record.TxID != "tx-1" {
			t.Errorf("txid = %q, want tx-1", record.TxID)
		}
		if record.PaymentStatus != domain.PaymentStatusNone {
			t.Errorf("payment status = %q, want none", record.PaymentStatus)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		if _, err := repo.GetRecord(ctx, "absent"); !errors.Is(err, domain.ErrRecordNotFound) {
			t.Fatalf("GetRecord() error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("partial update leaves other fields", func(t *testing.T) {
		err := repo.UpdateRecord(ctx, "o-2", domain.RecordUpdate{
			PaymentStatus: domain.PaymentStatusPtr(domain.PaymentStatusSettleInProgress),
			DataSource:    domain.DataSourcePtr(domain.SourceOrdersCron),
		})
		if err != nil {
			t.Fatalf("UpdateRecord() error = %v", err)
		}
		if err := repo.UpdateRecord(ctx, "o-2", domain.RecordUpdate{ProcessingCompleted: domain.BoolPtr(true)}); err != nil {
			t.Fatalf("UpdateRecord() error = %v", err)
		}
		record, err := repo.GetRecord(ctx, "o-2")
		if err != nil {
			t.Fatalf("GetRecord() error = %v", err)
		}
		if record.PaymentStatus != domain.PaymentStatusSettleInProgress {
			t.Errorf("payment status = %q", record.PaymentStatus)
		}
		if record.DataSource != domain.SourceOrdersCron {
			t.Errorf("data source = %q", record.DataSource)
		}
		if !record.ProcessingCompleted {
			t.Error("processing completed not set")
		}
	})

	t.Run("error lifecycle", func(t *testing.T) {
		if err := repo.MarkTransientError(ctx, "o-3", domain.RetrySyncOrder, domain.CodeOrderSyncCollision, "collision"); err != nil {
			t.Fatalf("MarkTransientError() error = %v", err)
		}
		if err := repo.MarkTransientError(ctx, "o-3", nil, domain.CodeSettleVerify, "settle failed"); err != nil {
			t.Fatalf("MarkTransientError() error = %v", err)
		}
		record, _ := repo.GetRecord(ctx, "o-3")
		if !record.TransientError || !domain.IsRetryAction(record.RetryAction, domain.RetrySyncOrder) {
			t.Fatalf("transient = %v action = %v, want syncOrder kept", record.TransientError, record.RetryAction)
		}
		if record.ErrorCode != domain.CodeSettleVerify {
			t.Errorf("error code = %q, want E908", record.ErrorCode)
		}

		count, err := repo.IncrementRetryCount(ctx, "o-3")
		if err != nil || count != 1 {
			t.Fatalf("IncrementRetryCount() = %d, %v", count, err)
		}
		count, _ = repo.IncrementRetryCount(ctx, "o-3")
		if count != 2 {
			t.Fatalf("retry count = %d, want 2", count)
		}

		if err := repo.ClearTransientError(ctx, "o-3"); err != nil {
			t.Fatalf("ClearTransientError() error = %v", err)
		}
		record, _ = repo.GetRecord(ctx, "o-3")
		if record.TransientError || record.RetryAction != nil || record.RetryCount != 0 {
			t.Fatalf("after clear: transient=%v action=%v count=%d", record.TransientError, record.RetryAction, record.RetryCount)
		}

		if err := repo.MarkHardError(ctx, "o-3", domain.CodeRefundVerify, "refund failed"); err != nil {
			t.Fatalf("MarkHardError() error = %v", err)
		}
		record, _ = repo.GetRecord(ctx, "o-3")
		if !record.HardError || !record.Inert() {
			t.Fatal("hard error not recorded")
		}
	})

	t.Run("increment on missing record", func(t *testing.T) {
		if _, err := repo.IncrementRetryCount(ctx, "absent"); !errors.Is(err, domain.ErrRecordNotFound) {
			t.Fatalf("IncrementRetryCount() error = %v", err)
		}
	})

	t.Run("watermarks", func(t *testing.T) {
		if _, found, err := repo.GetCronWatermark(ctx, domain.WatermarkOrders); err != nil || found {
			t.Fatalf("GetCronWatermark() found = %v err = %v", found, err)
		}
		first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		second := first.Add(time.Hour)
		if err := repo.SetCronWatermark(ctx, domain.WatermarkOrders, first); err != nil {
			t.Fatalf("SetCronWatermark() error = %v", err)
		}
		if err := repo.SetCronWatermark(ctx, domain.WatermarkOrders, second); err != nil {
			t.Fatalf("SetCronWatermark() error = %v", err)
		}
		got, found, err := repo.GetCronWatermark(ctx, domain.WatermarkOrders)
		if err != nil || !found {
			t.Fatalf("GetCronWatermark() found = %v err = %v", found, err)
		}
		if !got.Equal(second) {
			t.Errorf("watermark = %v, want %v", got, second)
		}
		if _, found, _ := repo.GetCronWatermark(ctx, domain.WatermarkPayments); found {
			t.Error("payments watermark should be unset")
		}
	})
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewDefaultOrderRepository(db)
	records := NewDefaultReconciliationRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	seedOrder(t, orders, "completed", domain.StatusCompleted, now.Add(-2*time.Hour))
	seedOrder(t, orders, "canceled", domain.StatusCanceled, now.Add(-time.Hour))
	seedOrder(t, orders, "pending", domain.StatusPending, now.Add(-time.Hour))
	seedOrder(t, orders, "done", domain.StatusCompleted, now.Add(-time.Hour))
	seedOrder(t, orders, "old", domain.StatusCompleted, now.Add(-48*time.Hour))
	seedOrder(t, orders, "no-record", domain.StatusCompleted, now.Add(-time.Hour))
	seedOrder(t, orders, "hard", domain.StatusCompleted, now.Add(-time.Hour))
	for _, id := range []string{"completed", "canceled", "pending", "done", "old", "hard"} {
		if err := records.CreateRecord(ctx, id); err != nil {
			t.Fatalf("CreateRecord(%s): %v", id, err)
		}
	}
	if err := records.UpdateRecord(ctx, "done", domain.RecordUpdate{ProcessingCompleted: domain.BoolPtr(true)}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if err := records.UpdateRecord(ctx, "canceled", domain.RecordUpdate{
		PaymentStatus: domain.PaymentStatusPtr(domain.PaymentStatusRefundInProgress),
	}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if err := records.MarkTransientError(ctx, "completed", domain.RetrySettle, domain.CodeSettleDispatch, "boom"); err != nil {
		t.Fatalf("MarkTransientError: %v", err)
	}
	if err := records.UpdateRecord(ctx, "hard", domain.RecordUpdate{
		PaymentStatus: domain.PaymentStatusPtr(domain.PaymentStatusRefundInProgress),
	}); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if err := records.MarkHardError(ctx, "hard", domain.CodeRetryExhausted, "retries exhausted"); err != nil {
		t.Fatalf("MarkHardError: %v", err)
	}

	t.Run("changed since", func(t *testing.T) {
		got, err := orders.GetOrdersChangedSince(ctx, now.Add(-3*time.Hour), now)
		if err != nil {
			t.Fatalf("GetOrdersChangedSince() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "completed" || got[1].ID != "canceled" {
			t.Fatalf("GetOrdersChangedSince() = %v, want [completed canceled]", ids(got))
		}
		if !got[0].TotalAmount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("total = %s, want 100", got[0].TotalAmount)
		}
	})

	t.Run("find by payment status", func(t *testing.T) {
		got, err := orders.FindOrders(ctx, domain.OrderFilter{
			PaymentStatus: domain.PaymentStatusPtr(domain.PaymentStatusRefundInProgress),
		})
		if err != nil {
			t.Fatalf("FindOrders() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "canceled" {
			t.Fatalf("FindOrders() = %v, want [canceled]", ids(got))
		}
	})

	t.Run("find transient errors", func(t *testing.T) {
		got, err := orders.FindOrders(ctx, domain.OrderFilter{TransientError: domain.BoolPtr(true)})
		if err != nil {
			t.Fatalf("FindOrders() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "completed" {
			t.Fatalf("FindOrders() = %v, want [completed]", ids(got))
		}
	})

	t.Run("hard errors are excluded", func(t *testing.T) {
		status := domain.StatusCompleted
		got, err := orders.FindOrders(ctx, domain.OrderFilter{Status: &status})
		if err != nil {
			t.Fatalf("FindOrders() error = %v", err)
		}
		for _, o := range got {
			if o.ID == "hard" {
				t.Fatalf("FindOrders() = %v, hard error order included", ids(got))
			}
		}
		if len(got) != 2 {
			t.Errorf("FindOrders() = %v, want [completed old]", ids(got))
		}
	})

	t.Run("pending lookup", func(t *testing.T) {
		got, err := orders.GetPendingOrder(ctx, "pending")
		if err != nil || got == nil {
			t.Fatalf("GetPendingOrder() = %v, %v", got, err)
		}
		got, err = orders.GetPendingOrder(ctx, "completed")
		if err != nil || got != nil {
			t.Fatalf("GetPendingOrder(completed) = %v, %v, want nil", got, err)
		}
	})

	t.Run("transitions", func(t *testing.T) {
		order, err := orders.GetOrderByID(ctx, "pending")
		if err != nil {
			t.Fatalf("GetOrderByID() error = %v", err)
		}
		applied, err := orders.ApplyTransition(ctx, order, domain.TransitionSingletoken)
		if err != nil || applied {
			t.Fatalf("illegal transition applied = %v err = %v", applied, err)
		}
		applied, err = orders.ApplyTransition(ctx, order, domain.TransitionConfirm)
		if err != nil || !applied {
			t.Fatalf("confirm applied = %v err = %v", applied, err)
		}
		stored, _ := orders.GetOrderByID(ctx, "pending")
		if stored.Status != domain.StatusAwaitingConfirmation {
			t.Fatalf("status = %q, want awaiting-confirmation", stored.Status)
		}

		stale := *order
		stale.Status = domain.StatusPending
		applied, err = orders.ApplyTransition(ctx, &stale, domain.TransitionFail)
		if err != nil || applied {
			t.Fatalf("stale transition applied = %v err = %v", applied, err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		if _, err := orders.GetOrderByID(ctx, "absent"); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("GetOrderByID() error = %v", err)
		}
	})
}

func ids(orders []*domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
