package repositories

import (
	"context"

	"storefront/internal/models"
)

// ReviewFilter scopes a review listing to a product, a user, or both.
type ReviewFilter struct {
	ProductID string
	UserID    string
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	List(ctx context.Context, f ReviewFilter) ([]models.Review, error)
	GetByID(ctx context.Context, id string) (*models.Review, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
}
