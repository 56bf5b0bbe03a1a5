package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	defaultPage          = 1
	defaultLimit         = 10
	defaultUserListLimit = 10000
)

// sortColumns maps the sort keys accepted from clients to order columns.
var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"totalPrice":    "total_price",
	"orderStatus":   "order_status",
	"paymentMethod": "payment_method",
}

// EventPublisher delivers order events to the message broker.
type EventPublisher interface {
	PublishJSON(routingKey string, payload interface{}) error
}

// Requester identifies the authenticated caller of an operation.
type Requester struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the requester holds the admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == models.RoleAdmin
}

// ListQuery holds the raw listing parameters of an order listing.
type ListQuery struct {
	Status        string
	PaymentMethod string
	Sort          string
	Page          int
	Limit         int
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders      []models.Order
	Total       int64
	TotalPages  int
	CurrentPage int
}

// OrderItemInput is a requested order line.
type OrderItemInput struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	PaymentMethod   string                `json:"paymentMethod"`
	PaymentResult   *models.PaymentResult `json:"paymentResult"`
	Items           []OrderItemInput      `json:"orderItems" validate:"dive"`
	VoucherID       string                `json:"voucher"`
	ShippingAddress string                `json:"shippingAddress"`
	Phone           string                `json:"phone"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	voucherRepo repositories.VoucherRepository
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	events      EventPublisher
	now         func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil, in which
// case no order events are published.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	voucherRepo repositories.VoucherRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		voucherRepo: voucherRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListOrders returns one page of all orders. The page count is computed over
// the whole collection, regardless of filters.
func (s *OrderService) ListOrders(ctx context.Context, q ListQuery) (*OrderPage, error) {
	return s.list(ctx, q, "", defaultLimit)
}

// ListOrdersForUser returns one page of the orders owned by userID.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string, q ListQuery) (*OrderPage, error) {
	return s.list(ctx, q, userID, defaultUserListLimit)
}

func (s *OrderService) list(ctx context.Context, q ListQuery, userID string, fallbackLimit int) (*OrderPage, error) {
	filter := repositories.OrderFilter{UserID: userID}
	if q.Status != "" {
		status := models.OrderStatus(q.Status)
		if !status.Valid() {
			return nil, apperrors.New(apperrors.ErrValidation, fmt.Sprintf("Invalid order status: %s", q.Status))
		}
		filter.Status = status
	}
	if q.PaymentMethod != "" {
		method := models.PaymentMethod(q.PaymentMethod)
		if !method.Valid() {
			return nil, apperrors.New(apperrors.ErrValidation, "Invalid payment method")
		}
		filter.PaymentMethod = method
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = fallbackLimit
	}

	orders, err := s.orderRepo.List(ctx, repositories.OrderQuery{
		OrderFilter: filter,
		Sort:        parseSort(q.Sort),
		Offset:      (page - 1) * limit,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	// Only the owner scope narrows the count; status filters do not.
	total, err := s.orderRepo.Count(ctx, repositories.OrderFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders:      orders,
		Total:       total,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage: page,
	}, nil
}

// parseSort turns "-createdAt,totalPrice" into sort fields. Unknown keys are
// ignored; an empty result falls back to newest first.
func parseSort(raw string) []repositories.SortField {
	var fields []repositories.SortField
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		desc := strings.HasPrefix(key, "-")
		column, ok := sortColumns[strings.TrimPrefix(key, "-")]
		if !ok {
			continue
		}
		fields = append(fields, repositories.SortField{Column: column, Desc: desc})
	}
	if len(fields) == 0 {
		fields = []repositories.SortField{{Column: "created_at", Desc: true}}
	}
	return fields
}

// GetOrder retrieves a single order with its details.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// CreateOrder places a new order for userID. Item prices come from the
// catalog; a voucher discounts the total by its percentage.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	if in.PaymentMethod == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "Payment method is required")
	}
	method := models.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, apperrors.New(apperrors.ErrValidation, "Invalid payment method")
	}
	if method == models.PaymentMethodPayPal && (in.PaymentResult == nil || in.PaymentResult.ID == "") {
		return nil, apperrors.New(apperrors.ErrValidation, "PayPal payment details required")
	}
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperrors.New(apperrors.ErrValidation, "Item quantity must be at least 1")
		}
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		PaymentMethod:   method,
		OrderStatus:     models.OrderStatusNew,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
	}

	if in.VoucherID != "" {
		voucher, err := s.voucherRepo.GetByID(ctx, in.VoucherID)
		if err != nil {
			return nil, err
		}
		off := total.Mul(voucher.Discount).Div(decimal.NewFromInt(100))
		total = total.Sub(off)
		order.VoucherID = &voucher.ID
	}
	order.TotalPrice = total.Round(2)

	var capture *models.Payment
	if in.PaymentResult != nil {
		order.PaymentResult = models.PaymentResult{
			ID:           in.PaymentResult.ID,
			EmailAddress: in.PaymentResult.EmailAddress,
		}
		if method == models.PaymentMethodPayPal {
			payment, err := s.paymentRepo.GetByExternalID(ctx, in.PaymentResult.ID)
			switch {
			case err == nil && payment.UserID == userID && payment.Completed():
				if payment.OrderID != nil {
					return nil, apperrors.New(apperrors.ErrConflict, "Payment has already been used for another order")
				}
				if payment.Amount.LessThan(order.TotalPrice) {
					return nil, apperrors.New(apperrors.ErrValidation, "Payment amount does not cover the order total")
				}
				capture = payment
				order.PaymentResult.Status = true
				order.PaymentResult.UpdateTime = payment.CapturedAt
				if order.PaymentResult.EmailAddress == "" {
					order.PaymentResult.EmailAddress = payment.PayerEmail
				}
			case err != nil && !errors.Is(err, apperrors.ErrNotFound):
				return nil, err
			}
		}
	}

	var err error
	if capture != nil {
		err = s.orderRepo.CreatePaid(ctx, order, capture.ExternalID)
	} else {
		err = s.orderRepo.Create(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	s.publish(models.EventOrderCreated, order)
	return order, nil
}

// UpdateOrder applies a generic patch. It never changes the status.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch repositories.OrderPatch) (*models.Order, error) {
	if err := s.orderRepo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, id)
}

// AcceptOrder moves a new order to processing.
func (s *OrderService) AcceptOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.Terminal() {
		return nil, apperrors.New(apperrors.ErrInvalidState, "Cannot update completed order")
	}
	return s.transition(ctx, id, repositories.StatusTransition{
		From: []models.OrderStatus{models.OrderStatusNew, models.OrderStatusProcessing},
		To:   models.OrderStatusProcessing,
	})
}

// CancelOrder marks an order failed. Customers may only cancel their own
// orders, and only while they are still new.
func (s *OrderService) CancelOrder(ctx context.Context, id string, requester Requester) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.Terminal() {
		return nil, apperrors.New(apperrors.ErrInvalidState, "Cannot update completed order")
	}

	t := repositories.StatusTransition{
		From: []models.OrderStatus{models.OrderStatusNew, models.OrderStatusProcessing},
		To:   models.OrderStatusFail,
	}
	if !requester.IsAdmin() {
		if order.OrderStatus != models.OrderStatusNew {
			return nil, apperrors.New(apperrors.ErrForbidden, "User cannot cancel order after it was processing")
		}
		if order.UserID != requester.UserID {
			return nil, apperrors.New(apperrors.ErrForbidden, "User does not own this order")
		}
		t.From = []models.OrderStatus{models.OrderStatusNew}
		t.OwnerID = requester.UserID
	}
	return s.transition(ctx, id, t)
}

// CompleteOrder records payment success and marks the order done. Orders not
// paid on delivery must have been paid through the gateway first.
func (s *OrderService) CompleteOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.Terminal() {
		return nil, apperrors.New(apperrors.ErrInvalidState, "Cannot update completed order")
	}
	if order.PaymentMethod != models.PaymentMethodCOD && !order.PaymentResult.Status {
		return nil, apperrors.New(apperrors.ErrPaymentRequired, "Please pay for the order through PayPal")
	}

	paidAt := s.now()
	return s.transition(ctx, id, repositories.StatusTransition{
		From:           []models.OrderStatus{models.OrderStatusNew, models.OrderStatusProcessing},
		To:             models.OrderStatusDone,
		RequirePayment: true,
		PaidAt:         &paidAt,
	})
}

func (s *OrderService) transition(ctx context.Context, id string, t repositories.StatusTransition) (*models.Order, error) {
	if err := s.orderRepo.Transition(ctx, id, t); err != nil {
		if errors.Is(err, repositories.ErrTransitionRejected) {
			return nil, apperrors.Wrap(apperrors.ErrInvalidState, "order status changed concurrently", err)
		}
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(models.EventOrderStatusChanged, order)
	return order, nil
}

// GetOrderStats aggregates the admin dashboard figures.
func (s *OrderService) GetOrderStats(ctx context.Context) (*models.OrderStats, error) {
	byStatus, err := s.orderRepo.StatsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.orderRepo.DailyCompleted(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if byStatus == nil {
		byStatus = []models.OrderStatusStat{}
	}
	if daily == nil {
		daily = []models.DailyOrderStat{}
	}
	return &models.OrderStats{OrderStats: byStatus, DailyOrders: daily, NumUsers: users}, nil
}

func (s *OrderService) publish(eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	event := models.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.OrderStatus,
		Method:     order.PaymentMethod,
		TotalPrice: order.TotalPrice,
		OccurredAt: s.now(),
	}
	if err := s.events.PublishJSON(eventType, event); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}
