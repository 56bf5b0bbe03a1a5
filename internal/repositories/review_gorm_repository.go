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

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

func withAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "first_name", "last_name", "avatar_url")
	})
}

// List returns the reviews matching f, newest first.
func (r *GORMReviewRepository) List(ctx context.Context, f ReviewFilter) ([]models.Review, error) {
	tx := withAuthor(r.db.WithContext(ctx))
	if f.ProductID != "" {
		tx = tx.Where("product_id = ?", f.ProductID)
	}
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}

	var reviews []models.Review
	if err := tx.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// GetByID retrieves a single review with its author.
func (r *GORMReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := withAuthor(r.db.WithContext(ctx)).First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "No document found with that ID")
		}
		return nil, fmt.Errorf("failed to get review by ID %s: %w", id, err)
	}
	return &review, nil
}

// Exists reports whether the user already reviewed the product.
func (r *GORMReviewRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return n > 0, nil
}

// Create stores a new review.
func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("User", "Product").Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Update overwrites the rating and content of a review.
func (r *GORMReviewRepository) Update(ctx context.Context, review *models.Review) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).
		Select("rating", "content", "updated_at").
		Updates(review)
	if res.Error != nil {
		return fmt.Errorf("failed to update review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "No document found with that ID")
	}
	return nil
}

// Delete removes a review.
func (r *GORMReviewRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "No document found with that ID")
	}
	return nil
}
