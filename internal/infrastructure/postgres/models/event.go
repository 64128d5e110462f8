package models

import "time"

// ReconciliationEventModel is the audit trail of published reconciliation
// events.
type ReconciliationEventModel struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       string `gorm:"size:64;uniqueIndex"`
	OrderID       string `gorm:"size:64;index"`
	Type          string `gorm:"size:32"`
	PaymentStatus string `gorm:"size:32"`
	TxID          string `gorm:"column:tx_id;size:128"`
	Job           string `gorm:"size:32"`
	Code          string `gorm:"size:16"`
	Timestamp     time.Time
}
