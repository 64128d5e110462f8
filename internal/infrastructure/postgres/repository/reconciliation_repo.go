package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultReconciliationRepository struct {
	DB *gorm.DB
}

func NewDefaultReconciliationRepository(db *gorm.DB) *DefaultReconciliationRepository {
	return &DefaultReconciliationRepository{DB: db}
}

func (r *DefaultReconciliationRepository) CreateRecord(ctx context.Context, orderID string) error {
	record := models.ReconciliationModel{
		OrderID:       orderID,
		PaymentStatus: string(domain.PaymentStatusNone),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}

func (r *DefaultReconciliationRepository) GetRecord(ctx context.Context, orderID string) (*domain.ReconciliationRecord, error) {
	var record models.ReconciliationModel
	if err := r.DB.WithContext(ctx).First(&record, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return mappers.ToDomainRecord(&record), nil
}

func (r *DefaultReconciliationRepository) UpdateRecord(ctx context.Context, orderID string, update domain.RecordUpdate) error {
	if update.Empty() {
		return nil
	}
	return r.upsert(ctx, orderID, mappers.ToUpdateColumns(update))
}

func (r *DefaultReconciliationRepository) MarkTransientError(ctx context.Context, orderID string, action domain.RetryAction, code domain.ErrorCode, msg string) error {
	columns := map[string]interface{}{
		"transient_error": true,
		"error_code":      string(code),
		"error_message":   msg,
	}
	if action != nil {
		columns["retry_action"] = action.Name()
	}
	return r.upsert(ctx, orderID, columns)
}

func (r *DefaultReconciliationRepository) MarkHardError(ctx context.Context, orderID string, code domain.ErrorCode, msg string) error {
	return r.upsert(ctx, orderID, map[string]interface{}{
		"hard_error":      true,
		"transient_error": false,
		"retry_action":    "",
		"error_code":      string(code),
		"error_message":   msg,
	})
}

func (r *DefaultReconciliationRepository) ClearTransientError(ctx context.Context, orderID string) error {
	return r.upsert(ctx, orderID, map[string]interface{}{
		"transient_error": false,
		"retry_action":    "",
		"retry_count":     0,
		"error_code":      "",
		"error_message":   "",
	})
}

func (r *DefaultReconciliationRepository) IncrementRetryCount(ctx context.Context, orderID string) (int, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.ReconciliationModel{}).
		Where("order_id = ?", orderID).
		Update("retry_count", gorm.Expr("retry_count + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("increment retry count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, domain.ErrRecordNotFound
	}

	var record models.ReconciliationModel
	if err := r.DB.WithContext(ctx).Select("retry_count").First(&record, "order_id = ?", orderID).Error; err != nil {
		return 0, err
	}
	return record.RetryCount, nil
}

func (r *DefaultReconciliationRepository) GetCronWatermark(ctx context.Context, name domain.WatermarkName) (time.Time, bool, error) {
	var watermark models.CronWatermarkModel
	err := r.DB.WithContext(ctx).First(&watermark, "name = ?", string(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return watermark.Value.UTC(), true, nil
}

func (r *DefaultReconciliationRepository) SetCronWatermark(ctx context.Context, name domain.WatermarkName, t time.Time) error {
	watermark := models.CronWatermarkModel{
		Name:  string(name),
		Value: t.UTC(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&watermark).Error
}

// upsert writes columns to the record of orderID, creating it first when
// it does not exist yet.
func (r *DefaultReconciliationRepository) upsert(ctx context.Context, orderID string, columns map[string]interface{}) error {
	if err := r.CreateRecord(ctx, orderID); err != nil {
		return fmt.Errorf("ensure record: %w", err)
	}
	columns["updated_at"] = time.Now().UTC()
	if err := r.DB.WithContext(ctx).
		Model(&models.ReconciliationModel{}).
		Where("order_id = ?", orderID).
		Updates(columns).Error; err != nil {
		return fmt.Errorf("update record %s: %w", orderID, err)
	}
	return nil
}
