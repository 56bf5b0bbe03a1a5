package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func (r *GORMOrderRepository) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		tx = tx.Where("order_status = ?", f.Status)
	}
	if f.PaymentMethod != "" {
		tx = tx.Where("payment_method = ?", f.PaymentMethod)
	}
	return tx
}

func withDetails(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "email")
		}).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "sku", "color", "cover_image", "price")
		}).
		Preload("Voucher", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "discount")
		})
}

// List retrieves one page of orders with their user, products and voucher.
func (r *GORMOrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	tx := withDetails(r.filtered(ctx, q.OrderFilter))
	for _, s := range q.Sort {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}
	tx = tx.Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var orders []models.Order
	if err := tx.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Count counts the orders matching f.
func (r *GORMOrderRepository) Count(ctx context.Context, f OrderFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

// GetByID retrieves a single order with its details.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := withDetails(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "No document found with that ID")
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create stores the order together with its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("User", "Voucher").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreatePaid stores order and links the captured payment to it in one
// transaction. Nothing is stored when the payment is already linked.
func (r *GORMOrderRepository) CreatePaid(ctx context.Context, order *models.Order, paymentExternalID string) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Voucher").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return linkPayment(tx, paymentExternalID, order.ID)
	})
}

// Update applies the non-nil fields of patch.
func (r *GORMOrderRepository) Update(ctx context.Context, id string, patch OrderPatch) error {
	updates := map[string]interface{}{}
	if patch.ShippingAddress != nil {
		updates["shipping_address"] = *patch.ShippingAddress
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if pr := patch.PaymentResult; pr != nil {
		updates["payment_id"] = pr.ID
		updates["payment_status"] = pr.Status
		updates["payment_update_time"] = pr.UpdateTime
		updates["payment_email_address"] = pr.EmailAddress
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "No document found with that ID")
	}
	return nil
}

// Transition performs t as a single conditional UPDATE. It returns
// ErrTransitionRejected when no row matched the preconditions.
func (r *GORMOrderRepository) Transition(ctx context.Context, id string, t StatusTransition) error {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Where("order_status IN ?", t.From)
	if t.OwnerID != "" {
		tx = tx.Where("user_id = ?", t.OwnerID)
	}
	if t.RequirePayment {
		tx = tx.Where("(payment_method = ? OR payment_status = ?)", models.PaymentMethodCOD, true)
	}

	updates := map[string]interface{}{
		"order_status": t.To,
		"updated_at":   time.Now().UTC(),
	}
	if t.PaidAt != nil {
		updates["payment_status"] = true
		updates["payment_update_time"] = *t.PaidAt
	}

	res := tx.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to move order %s to %s: %w", id, t.To, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTransitionRejected
	}
	return nil
}

// StatsByStatus counts orders and sums their totals per status.
func (r *GORMOrderRepository) StatsByStatus(ctx context.Context) ([]models.OrderStatusStat, error) {
	var stats []models.OrderStatusStat
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("order_status AS status, COUNT(*) AS num_order, COALESCE(SUM(total_price), 0) AS sales").
		Group("order_status").
		Order("order_status").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders by status: %w", err)
	}
	return stats, nil
}

// DailyCompleted counts completed orders and sums their totals per calendar
// day of creation, oldest day first.
func (r *GORMOrderRepository) DailyCompleted(ctx context.Context) ([]models.DailyOrderStat, error) {
	day := dayExpression(r.db.Dialector.Name())

	var stats []models.DailyOrderStat
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select(day+" AS day, COUNT(*) AS orders, COALESCE(SUM(total_price), 0) AS sales").
		Where("order_status = ?", models.OrderStatusDone).
		Group("day").
		Order("day").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily orders: %w", err)
	}
	return stats, nil
}

func dayExpression(dialect string) string {
	switch dialect {
	case "postgres":
		return "to_char(created_at, 'YYYY-MM-DD')"
	case "mysql":
		return "DATE_FORMAT(created_at, '%Y-%m-%d')"
	default:
		return "strftime('%Y-%m-%d', created_at)"
	}
}

// HasCompletedPurchase reports whether the user has a done order containing the product.
func (r *GORMOrderRepository) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.order_status = ? AND order_items.product_id = ?",
			userID, models.OrderStatusDone, productID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up purchases of product %s: %w", productID, err)
	}
	return n > 0, nil
}
