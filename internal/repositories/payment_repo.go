package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperrors"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository defines the interface for gateway payment records.
type PaymentRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
}

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

// GetByExternalID retrieves the payment recorded for a gateway order id.
func (r *GORMPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("payment %s not found", externalID))
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", externalID, err)
	}
	return &payment, nil
}

// Save inserts the payment or, when its external id is already known,
// overwrites the stored status, payer and capture time.
func (r *GORMPaymentRepository) Save(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "payer_email", "captured_at", "updated_at"}),
	}).Create(payment).Error
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.ExternalID, err)
	}
	return nil
}

// linkPayment records which internal order a captured payment paid for. A
// payment that is already linked cannot be reused.
func linkPayment(tx *gorm.DB, externalID, orderID string) error {
	res := tx.Model(&models.Payment{}).
		Where("external_id = ? AND status = ? AND order_id IS NULL", externalID, models.PaymentStatusCompleted).
		Update("order_id", orderID)
	if res.Error != nil {
		return fmt.Errorf("failed to link payment %s to order %s: %w", externalID, orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrConflict, "Payment has already been used for another order")
	}
	return nil
}
