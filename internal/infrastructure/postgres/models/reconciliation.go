package models

import "time"

type ReconciliationModel struct {
	OrderID             string `gorm:"primaryKey;size:64"`
	PaymentStatus       string `gorm:"size:32;default:none;index"`
	TxID                string `gorm:"size:128"`
	HardError           bool   `gorm:"not null;default:false"`
	TransientError      bool   `gorm:"not null;default:false;index"`
	RetryAction         string `gorm:"size:32"`
	RetryCount          int    `gorm:"not null;default:0"`
	ErrorCode           string `gorm:"size:16"`
	ErrorMessage        string `gorm:"type:text"`
	DataSource          string `gorm:"size:32"`
	ProcessingCompleted bool   `gorm:"not null;default:false;index"`
	Addresses           string `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CronWatermarkModel struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     time.Time
	UpdatedAt time.Time
}
