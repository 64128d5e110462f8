package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID             string          `gorm:"primaryKey;size:64"`
	Status         string          `gorm:"size:32;index:idx_order_status_updated"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(36,18)"`
	Currency       string          `gorm:"size:16"`
	PaymentGateway string          `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"index:idx_order_status_updated"`
}
