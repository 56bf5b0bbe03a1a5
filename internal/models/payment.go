package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gateway statuses stored on Payment.
const (
	PaymentStatusCreated   = "CREATED"
	PaymentStatusCompleted = "COMPLETED"
)

// Payment tracks one PayPal order from creation through capture and, once
// the customer checks out, the internal order it paid for.
type Payment struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ExternalID string          `json:"externalId" gorm:"uniqueIndex;type:varchar(64)"`
	UserID     string          `json:"userId" gorm:"index;type:varchar(36)"`
	OrderID    *string         `json:"orderId,omitempty" gorm:"index;type:varchar(36)"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Currency   string          `json:"currency" gorm:"type:varchar(3)"`
	Status     string          `json:"status" gorm:"type:varchar(32)"`
	PayerEmail string          `json:"payerEmail,omitempty" gorm:"type:varchar(255)"`
	CapturedAt *time.Time      `json:"capturedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Completed reports whether the gateway captured the payment.
func (p *Payment) Completed() bool {
	return p.Status == PaymentStatusCompleted
}
