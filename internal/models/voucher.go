package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is a discount code applicable to an order. Discount is a percentage.
type Voucher struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code      string          `json:"code,omitempty" gorm:"uniqueIndex;type:varchar(32)"`
	Discount  decimal.Decimal `json:"discount" gorm:"type:numeric(5,2)"`
	CreatedAt time.Time       `json:"-"`
}
