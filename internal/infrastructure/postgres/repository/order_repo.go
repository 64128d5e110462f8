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
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	if err := r.DB.WithContext(ctx).Create(orderModel).Error; err != nil {
		return err
	}
	order.CreatedAt = orderModel.CreatedAt
	order.UpdatedAt = orderModel.UpdatedAt
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return mappers.ToDomainOrder(&order), nil
}

// ApplyTransition compares and sets the status so a transition racing with
// another writer is dropped instead of overwriting it.
func (r *DefaultOrderRepository) ApplyTransition(ctx context.Context, order *domain.Order, t domain.Transition) (bool, error) {
	next, ok := domain.NextStatus(order.Status, t)
	if !ok {
		return false, nil
	}

	now := time.Now().UTC()
	result := r.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", order.ID, string(order.Status)).
		Updates(map[string]interface{}{
			"status":     string(next),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("apply transition %s: %w", t, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	order.Status = next
	order.UpdatedAt = now
	return true, nil
}

func (r *DefaultOrderRepository) GetOrdersChangedSince(ctx context.Context, since, until time.Time) ([]*domain.Order, error) {
	var orderModels []models.OrderModel
	if err := r.reconcilable(ctx).
		Where("order_models.status IN ?", []string{string(domain.StatusCompleted), string(domain.StatusCanceled)}).
		Where("order_models.updated_at >= ? AND order_models.updated_at <= ?", since, until).
		Order("order_models.updated_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find changed orders: %w", err)
	}

	return toDomainOrders(orderModels), nil
}

func (r *DefaultOrderRepository) FindOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	query := r.reconcilable(ctx)
	if filter.Status != nil {
		query = query.Where("order_models.status = ?", string(*filter.Status))
	}
	if filter.PaymentStatus != nil {
		query = query.Where("reconciliation_models.payment_status = ?", string(*filter.PaymentStatus))
	}
	if filter.TransientError != nil {
		query = query.Where("reconciliation_models.transient_error = ?", *filter.TransientError)
	}

	var orderModels []models.OrderModel
	if err := query.Order("order_models.updated_at DESC").Find(&orderModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	return toDomainOrders(orderModels), nil
}

func (r *DefaultOrderRepository) GetPendingOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	statuses := make([]string, len(domain.PendingStatuses))
	for i, s := range domain.PendingStatuses {
		statuses[i] = string(s)
	}

	var order models.OrderModel
	err := r.DB.WithContext(ctx).
		Where("id = ? AND status IN ? AND payment_gateway = ?", orderID, statuses, domain.GatewayBleumiPay).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return mappers.ToDomainOrder(&order), nil
}

// reconcilable joins orders to records still open for processing: neither
// completed nor stopped by a hard error.
func (r *DefaultOrderRepository) reconcilable(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("order_models.*").
		Joins("JOIN reconciliation_models ON reconciliation_models.order_id = order_models.id").
		Where("order_models.payment_gateway = ?", domain.GatewayBleumiPay).
		Where("reconciliation_models.processing_completed = ?", false).
		Where("reconciliation_models.hard_error = ?", false)
}

func toDomainOrders(orderModels []models.OrderModel) []*domain.Order {
	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders
}
