package domain

import (
	"context"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusNone             PaymentStatus = "none"
	PaymentStatusReceived         PaymentStatus = "payment-received"
	PaymentStatusSettleInProgress PaymentStatus = "settle-in-progress"
	PaymentStatusSettled          PaymentStatus = "settled"
	PaymentStatusSettleFailed     PaymentStatus = "settle-failed"
	PaymentStatusRefundInProgress PaymentStatus = "refund-in-progress"
	PaymentStatusRefunded         PaymentStatus = "refunded"
	PaymentStatusRefundFailed     PaymentStatus = "refund-failed"
)

// InProgress reports whether a settle or refund is awaiting verification.
func (s PaymentStatus) InProgress() bool {
	return s == PaymentStatusSettleInProgress || s == PaymentStatusRefundInProgress
}

// Dispatched reports whether a settle or refund was ever dispatched,
// whatever its outcome.
func (s PaymentStatus) Dispatched() bool {
	switch s {
	case PaymentStatusSettleInProgress, PaymentStatusSettled, PaymentStatusSettleFailed,
		PaymentStatusRefundInProgress, PaymentStatusRefunded, PaymentStatusRefundFailed:
		return true
	}
	return false
}

// DataSource identifies the job that last wrote a record.
type DataSource string

const (
	SourceOrdersCron   DataSource = "orders-cron"
	SourcePaymentsCron DataSource = "payments-cron"
	SourceRetryCron    DataSource = "retry-cron"
)

type ReconciliationRecord struct {
	OrderID             string
	PaymentStatus       PaymentStatus
	TxID                string
	HardError           bool
	TransientError      bool
	RetryAction         RetryAction
	RetryCount          int
	ErrorCode           ErrorCode
	ErrorMessage        string
	DataSource          DataSource
	ProcessingCompleted bool
	Addresses           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Inert records are excluded from every sync pass.
func (r *ReconciliationRecord) Inert() bool {
	return r.HardError || r.ProcessingCompleted
}

// RecentlyWrittenBy reports whether the record was last written by job and
// the order changed less than window before now.
func (r *ReconciliationRecord) RecentlyWrittenBy(job DataSource, order *Order, now time.Time, window time.Duration) bool {
	return r.DataSource == job && now.Sub(order.ModifiedAt()) < window
}

// RecordUpdate carries a partial write; nil fields are left untouched.
type RecordUpdate struct {
	PaymentStatus       *PaymentStatus
	TxID                *string
	ProcessingCompleted *bool
	DataSource          *DataSource
	Addresses           *string
}

func (u RecordUpdate) Empty() bool {
	return u.PaymentStatus == nil && u.TxID == nil && u.ProcessingCompleted == nil &&
		u.DataSource == nil && u.Addresses == nil
}

type WatermarkName string

const (
	WatermarkOrders   WatermarkName = "order_updated_at"
	WatermarkPayments WatermarkName = "payment_updated_at"
)

type ReconciliationRepository interface {
	// CreateRecord is idempotent.
	CreateRecord(ctx context.Context, orderID string) error
	GetRecord(ctx context.Context, orderID string) (*ReconciliationRecord, error)
	UpdateRecord(ctx context.Context, orderID string, update RecordUpdate) error
	// MarkTransientError keeps the stored retry action when action is nil.
	MarkTransientError(ctx context.Context, orderID string, action RetryAction, code ErrorCode, msg string) error
	MarkHardError(ctx context.Context, orderID string, code ErrorCode, msg string) error
	ClearTransientError(ctx context.Context, orderID string) error
	IncrementRetryCount(ctx context.Context, orderID string) (int, error)

	// GetCronWatermark reports found=false when the watermark was never set.
	GetCronWatermark(ctx context.Context, name WatermarkName) (t time.Time, found bool, err error)
	SetCronWatermark(ctx context.Context, name WatermarkName, t time.Time) error
}

func PaymentStatusPtr(s PaymentStatus) *PaymentStatus { return &s }
func DataSourcePtr(s DataSource) *DataSource          { return &s }
func BoolPtr(b bool) *bool                            { return &b }
func StringPtr(s string) *string                      { return &s }
