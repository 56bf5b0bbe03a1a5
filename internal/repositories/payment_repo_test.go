package repositories_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMPaymentRepository_SaveUpserts(t *testing.T) {
	f := newFixture(t)
	repo := repositories.NewGORMPaymentRepository(f.db)
	ctx := context.Background()

	created := &models.Payment{
		ExternalID: "PAYPAL-1",
		UserID:     f.user.ID,
		Amount:     decimal.RequireFromString("19.99"),
		Currency:   "USD",
		Status:     models.PaymentStatusCreated,
	}
	require.NoError(t, repo.Save(ctx, created))

	capturedAt := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, &models.Payment{
		ExternalID: "PAYPAL-1",
		UserID:     f.user.ID,
		Amount:     decimal.RequireFromString("19.99"),
		Currency:   "USD",
		Status:     models.PaymentStatusCompleted,
		PayerEmail: "payer@example.com",
		CapturedAt: &capturedAt,
	}))

	got, err := repo.GetByExternalID(ctx, "PAYPAL-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.Completed())
	assert.Equal(t, "payer@example.com", got.PayerEmail)
	require.NotNil(t, got.CapturedAt)

	_, err = repo.GetByExternalID(ctx, "PAYPAL-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
