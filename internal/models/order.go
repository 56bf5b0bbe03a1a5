package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way the storefront client sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDone       OrderStatus = "done"
	OrderStatusFail       OrderStatus = "fail"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusDone, OrderStatusFail:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusFail
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodPayPal PaymentMethod = "PayPal"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodPayPal
}

// PaymentResult records the outcome of paying for an order.
type PaymentResult struct {
	ID           string     `json:"id,omitempty" gorm:"type:varchar(64)"`
	Status       bool       `json:"status"`
	UpdateTime   *time.Time `json:"updateTime,omitempty"`
	EmailAddress string     `json:"emailAddress,omitempty" gorm:"type:varchar(255)"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   string          `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string          `json:"-" gorm:"type:varchar(36)"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"` // catalog price when ordered
}

// Order is a customer's purchase record.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"userId" gorm:"index;type:varchar(36)"`
	User            *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items           []OrderItem     `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalPrice      decimal.Decimal `json:"totalPrice" gorm:"type:numeric(12,2)"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(16)"`
	PaymentResult   PaymentResult   `json:"paymentResult" gorm:"embedded;embeddedPrefix:payment_"`
	OrderStatus     OrderStatus     `json:"orderStatus" gorm:"index;type:varchar(16)"`
	VoucherID       *string         `json:"-" gorm:"type:varchar(36)"`
	Voucher         *Voucher        `json:"voucher,omitempty" gorm:"foreignKey:VoucherID"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	Phone           string          `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderStatusStat is one row of the per-status dashboard aggregation.
type OrderStatusStat struct {
	Status   OrderStatus     `json:"status"`
	NumOrder int64           `json:"numOrder"`
	Sales    decimal.Decimal `json:"sales"`
}

// DailyOrderStat is one row of the per-day aggregation over completed orders.
type DailyOrderStat struct {
	Day    string          `json:"date" gorm:"column:day"`
	Orders int64           `json:"orders"`
	Sales  decimal.Decimal `json:"sales"`
}

// OrderStats backs the admin dashboard.
type OrderStats struct {
	OrderStats  []OrderStatusStat `json:"orderStats"`
	DailyOrders []DailyOrderStat  `json:"dailyOrders"`
	NumUsers    int64             `json:"numUsers"`
}

// Order event routing keys.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published to the broker whenever an order is created or moves
// to another status.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Status     OrderStatus     `json:"status"`
	Method     PaymentMethod   `json:"paymentMethod"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	OccurredAt time.Time       `json:"occurredAt"`
}
