package repositories

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"
)

// ErrTransitionRejected is returned by Transition when the order no longer
// satisfies the transition's preconditions.
var ErrTransitionRejected = errors.New("order status transition rejected")

// OrderFilter narrows the set of orders a query or count runs over.
type OrderFilter struct {
	UserID        string
	Status        models.OrderStatus
	PaymentMethod models.PaymentMethod
}

// SortField orders results by a database column.
type SortField struct {
	Column string
	Desc   bool
}

// OrderQuery is a filtered, sorted page of orders.
type OrderQuery struct {
	OrderFilter
	Sort   []SortField
	Offset int
	Limit  int
}

// OrderPatch lists the fields the generic update may change. Nil fields are left alone.
type OrderPatch struct {
	ShippingAddress *string
	Phone           *string
	PaymentResult   *models.PaymentResult
}

// StatusTransition is a conditional status update: it only applies when the
// order's current status is one of From and the other guards hold.
type StatusTransition struct {
	From           []models.OrderStatus
	To             models.OrderStatus
	OwnerID        string     // when set, the order must belong to this user
	RequirePayment bool       // non-COD orders must already be paid
	PaidAt         *time.Time // when set, records a successful payment at this time
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	List(ctx context.Context, q OrderQuery) ([]models.Order, error)
	Count(ctx context.Context, f OrderFilter) (int64, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	CreatePaid(ctx context.Context, order *models.Order, paymentExternalID string) error
	Update(ctx context.Context, id string, patch OrderPatch) error
	Transition(ctx context.Context, id string, t StatusTransition) error
	StatsByStatus(ctx context.Context) ([]models.OrderStatusStat, error)
	DailyCompleted(ctx context.Context) ([]models.DailyOrderStat, error)
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
}
