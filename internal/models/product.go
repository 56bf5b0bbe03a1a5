package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string          `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	SKU        string          `json:"sku" gorm:"type:varchar(64)" validate:"omitempty,max=64"`
	Color      string          `json:"color" gorm:"type:varchar(32)" validate:"omitempty,max=32"`
	CoverImage string          `json:"coverImage" gorm:"type:varchar(500)" validate:"omitempty,url"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Stock      int             `json:"stock" validate:"gte=0"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
