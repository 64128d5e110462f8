package logger

import (
	"context"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PGEventLogger stores every reconciliation event in the recon database so
// the history of an order survives without a broker.
type PGEventLogger struct {
	db *gorm.DB
}

func NewPGEventLogger(db *gorm.DB) *PGEventLogger {
	return &PGEventLogger{db: db}
}

func (l *PGEventLogger) Publish(ctx context.Context, event domain.ReconciliationEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	entry := models.ReconciliationEventModel{
		EventID:       event.EventID,
		OrderID:       event.OrderID,
		Type:          string(event.Type),
		PaymentStatus: string(event.PaymentStatus),
		TxID:          event.TxID,
		Job:           string(event.Job),
		Code:          string(event.Code),
		Timestamp:     event.Timestamp,
	}
	return l.db.WithContext(ctx).Create(&entry).Error
}

// History returns the stored events of one order, oldest first.
func (l *PGEventLogger) History(ctx context.Context, orderID string) ([]domain.ReconciliationEvent, error) {
	var entries []models.ReconciliationEventModel
	if err := l.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	events := make([]domain.ReconciliationEvent, len(entries))
	for i, e := range entries {
		events[i] = domain.ReconciliationEvent{
			EventID:       e.EventID,
			OrderID:       e.OrderID,
			Type:          domain.EventType(e.Type),
			PaymentStatus: domain.PaymentStatus(e.PaymentStatus),
			TxID:          e.TxID,
			Job:           domain.DataSource(e.Job),
			Code:          domain.ErrorCode(e.Code),
			Timestamp:     e.Timestamp,
		}
	}
	return events, nil
}
