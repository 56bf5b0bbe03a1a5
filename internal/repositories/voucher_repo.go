package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperrors"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherRepository defines the interface for voucher data access.
type VoucherRepository interface {
	GetByID(ctx context.Context, id string) (*models.Voucher, error)
	Create(ctx context.Context, voucher *models.Voucher) error
}

// GORMVoucherRepository is a GORM implementation of VoucherRepository.
type GORMVoucherRepository struct {
	db *gorm.DB
}

// NewGORMVoucherRepository creates a new instance of GORMVoucherRepository.
func NewGORMVoucherRepository(db *gorm.DB) *GORMVoucherRepository {
	return &GORMVoucherRepository{db: db}
}

// GetByID retrieves a voucher by its ID.
func (r *GORMVoucherRepository) GetByID(ctx context.Context, id string) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("voucher with ID %s not found", id))
		}
		return nil, fmt.Errorf("failed to get voucher by ID %s: %w", id, err)
	}
	return &voucher, nil
}

// Create stores a new voucher.
func (r *GORMVoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	if voucher.ID == "" {
		voucher.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return fmt.Errorf("failed to create voucher: %w", err)
	}
	return nil
}
