package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	orders   *repositories.GORMOrderRepository
	users    *repositories.GORMUserRepository
	products *repositories.GORMProductRepository
	user     *models.User
	product  *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		orders:   repositories.NewGORMOrderRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		products: repositories.NewGORMProductRepository(db),
	}
	ctx := context.Background()

	f.user = &models.User{Email: "buyer@example.com", FirstName: "Ada", LastName: "Byron", Role: models.RoleUser, Password: "x"}
	require.NoError(t, f.users.Create(ctx, f.user))

	f.product = &models.Product{Name: "Laptop", SKU: "LP-1", Price: decimal.NewFromInt(1200), Stock: 10}
	require.NoError(t, f.products.Create(ctx, f.product))
	return f
}

func (f *fixture) createOrder(t *testing.T, userID string, method models.PaymentMethod, status models.OrderStatus, total int64) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:        userID,
		PaymentMethod: method,
		OrderStatus:   status,
		TotalPrice:    decimal.NewFromInt(total),
		Items: []models.OrderItem{
			{ProductID: f.product.ID, Quantity: 1, Price: decimal.NewFromInt(total)},
		},
	}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func TestGORMOrderRepository_CreateAndGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, 1200)
	assert.NotEmpty(t, created.ID)

	got, err := f.orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNew, got.OrderStatus)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Laptop", got.Items[0].Product.Name)
	require.NotNil(t, got.User)
	assert.Equal(t, "buyer@example.com", got.User.Email)
	assert.Empty(t, got.User.Password)

	_, err = f.orders.GetByID(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGORMOrderRepository_ListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, int64(10+i))
	}
	f.createOrder(t, f.user.ID, models.PaymentMethodPayPal, models.OrderStatusDone, 99)

	page, err := f.orders.List(ctx, repositories.OrderQuery{
		Sort:  []repositories.SortField{{Column: "total_price", Desc: true}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].TotalPrice.Equal(decimal.NewFromInt(99)))
	assert.True(t, page[1].TotalPrice.Equal(decimal.NewFromInt(14)))

	page, err = f.orders.List(ctx, repositories.OrderQuery{
		Sort:   []repositories.SortField{{Column: "total_price"}},
		Offset: 4,
		Limit:  4,
	})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	byMethod, err := f.orders.List(ctx, repositories.OrderQuery{
		OrderFilter: repositories.OrderFilter{PaymentMethod: models.PaymentMethodPayPal},
	})
	require.NoError(t, err)
	require.Len(t, byMethod, 1)
	assert.Equal(t, models.OrderStatusDone, byMethod[0].OrderStatus)

	n, err := f.orders.Count(ctx, repositories.OrderFilter{Status: models.OrderStatusNew})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestGORMOrderRepository_TransitionIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, 50)

	cancel := repositories.StatusTransition{
		From: []models.OrderStatus{models.OrderStatusNew},
		To:   models.OrderStatusFail,
	}
	require.NoError(t, f.orders.Transition(ctx, order.ID, cancel))

	// The same precondition no longer holds once the first update landed.
	err := f.orders.Transition(ctx, order.ID, cancel)
	assert.ErrorIs(t, err, repositories.ErrTransitionRejected)

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFail, got.OrderStatus)
}

func TestGORMOrderRepository_TransitionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unpaid := f.createOrder(t, f.user.ID, models.PaymentMethodPayPal, models.OrderStatusProcessing, 50)

	err := f.orders.Transition(ctx, unpaid.ID, repositories.StatusTransition{
		From:           []models.OrderStatus{models.OrderStatusNew, models.OrderStatusProcessing},
		To:             models.OrderStatusDone,
		RequirePayment: true,
	})
	assert.ErrorIs(t, err, repositories.ErrTransitionRejected)

	err = f.orders.Transition(ctx, unpaid.ID, repositories.StatusTransition{
		From:    []models.OrderStatus{models.OrderStatusProcessing},
		To:      models.OrderStatusFail,
		OwnerID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, repositories.ErrTransitionRejected)

	cod := f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, 50)
	paidAt := time.Now().UTC()
	require.NoError(t, f.orders.Transition(ctx, cod.ID, repositories.StatusTransition{
		From:           []models.OrderStatus{models.OrderStatusNew, models.OrderStatusProcessing},
		To:             models.OrderStatusDone,
		RequirePayment: true,
		PaidAt:         &paidAt,
	}))

	got, err := f.orders.GetByID(ctx, cod.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDone, got.OrderStatus)
	assert.True(t, got.PaymentResult.Status)
	require.NotNil(t, got.PaymentResult.UpdateTime)
}

func TestGORMOrderRepository_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, 50)

	address := "221B Baker Street"
	require.NoError(t, f.orders.Update(ctx, order.ID, repositories.OrderPatch{ShippingAddress: &address}))

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, address, got.ShippingAddress)
	assert.Equal(t, models.OrderStatusNew, got.OrderStatus)

	err = f.orders.Update(ctx, uuid.NewString(), repositories.OrderPatch{ShippingAddress: &address})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGORMOrderRepository_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusDone, 100)
	f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusDone, 50)
	f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusNew, 20)

	byStatus, err := f.orders.StatsByStatus(ctx)
	require.NoError(t, err)
	require.Len(t, byStatus, 2)
	assert.Equal(t, models.OrderStatusDone, byStatus[0].Status)
	assert.Equal(t, int64(2), byStatus[0].NumOrder)
	assert.True(t, byStatus[0].Sales.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, models.OrderStatusNew, byStatus[1].Status)

	daily, err := f.orders.DailyCompleted(ctx)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), daily[0].Day)
	assert.Equal(t, int64(2), daily[0].Orders)
	assert.True(t, daily[0].Sales.Equal(decimal.NewFromInt(150)))
}

func TestGORMOrderRepository_HasCompletedPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.createOrder(t, f.user.ID, models.PaymentMethodCOD, models.OrderStatusProcessing, 10)
	ok, err := f.orders.HasCompletedPurchase(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.orders.Transition(ctx, order.ID, repositories.StatusTransition{
		From: []models.OrderStatus{models.OrderStatusProcessing},
		To:   models.OrderStatusDone,
	}))
	ok, err = f.orders.HasCompletedPurchase(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGORMOrderRepository_CreatePaidLinksPaymentOnce(t *testing.T) {
	f := newFixture(t)
	payments := repositories.NewGORMPaymentRepository(f.db)
	ctx := context.Background()

	require.NoError(t, payments.Save(ctx, &models.Payment{
		ExternalID: "PAYPAL-2",
		UserID:     f.user.ID,
		Amount:     decimal.NewFromInt(1200),
		Currency:   "USD",
		Status:     models.PaymentStatusCompleted,
	}))
	newPaid := func() *models.Order {
		return &models.Order{
			UserID:        f.user.ID,
			PaymentMethod: models.PaymentMethodPayPal,
			PaymentResult: models.PaymentResult{ID: "PAYPAL-2", Status: true},
			OrderStatus:   models.OrderStatusNew,
			TotalPrice:    decimal.NewFromInt(1200),
		}
	}

	first := newPaid()
	require.NoError(t, f.orders.CreatePaid(ctx, first, "PAYPAL-2"))

	second := newPaid()
	err := f.orders.CreatePaid(ctx, second, "PAYPAL-2")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// The losing order is rolled back with the failed link.
	_, err = f.orders.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := payments.GetByExternalID(ctx, "PAYPAL-2")
	require.NoError(t, err)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, first.ID, *got.OrderID)
}

func TestGORMOrderRepository_CreatePaidRequiresCapturedPayment(t *testing.T) {
	f := newFixture(t)
	payments := repositories.NewGORMPaymentRepository(f.db)
	ctx := context.Background()

	require.NoError(t, payments.Save(ctx, &models.Payment{
		ExternalID: "PAYPAL-3",
		UserID:     f.user.ID,
		Amount:     decimal.NewFromInt(10),
		Currency:   "USD",
		Status:     models.PaymentStatusCreated,
	}))

	order := &models.Order{UserID: f.user.ID, PaymentMethod: models.PaymentMethodPayPal, OrderStatus: models.OrderStatusNew}
	assert.ErrorIs(t, f.orders.CreatePaid(ctx, order, "PAYPAL-3"), apperrors.ErrConflict)
	assert.ErrorIs(t, f.orders.CreatePaid(ctx, order, "PAYPAL-404"), apperrors.ErrConflict)
}
