package mappers

import (
	"log/slog"

	"github.com/LavaJover/shvark-bleumipay-service/internal/domain"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres/models"
)

func ToDomainRecord(model *models.ReconciliationModel) *domain.ReconciliationRecord {
	action, err := domain.ParseRetryAction(model.RetryAction)
	if err != nil {
		// an unknown action decodes to nil so the retry pass treats it as a no-op
		slog.Warn("unknown retry action stored", "order_id", model.OrderID, "retry_action", model.RetryAction)
	}
	status := domain.PaymentStatus(model.PaymentStatus)
	if status == "" {
		status = domain.PaymentStatusNone
	}
	return &domain.ReconciliationRecord{
		OrderID:             model.OrderID,
		PaymentStatus:       status,
		TxID:                model.TxID,
		HardError:           model.HardError,
		TransientError:      model.TransientError,
		RetryAction:         action,
		RetryCount:          model.RetryCount,
		ErrorCode:           domain.ErrorCode(model.ErrorCode),
		ErrorMessage:        model.ErrorMessage,
		DataSource:          domain.DataSource(model.DataSource),
		ProcessingCompleted: model.ProcessingCompleted,
		Addresses:           model.Addresses,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// ToUpdateColumns maps the present fields of a partial write to columns.
func ToUpdateColumns(update domain.RecordUpdate) map[string]interface{} {
	columns := make(map[string]interface{})
	if update.PaymentStatus != nil {
		columns["payment_status"] = string(*update.PaymentStatus)
	}
	if update.TxID != nil {
		columns["tx_id"] = *update.TxID
	}
	if update.ProcessingCompleted != nil {
		columns["processing_completed"] = *update.ProcessingCompleted
	}
	if update.DataSource != nil {
		columns["data_source"] = string(*update.DataSource)
	}
	if update.Addresses != nil {
		columns["addresses"] = *update.Addresses
	}
	return columns
}
