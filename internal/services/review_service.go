package services

import (
	"context"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ReviewInput carries the client supplied fields of a review.
type ReviewInput struct {
	ProductID string `json:"product"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Content   string `json:"content" validate:"required,max=2000"`
}

// ReviewService handles business logic related to product reviews.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// ListReviews returns the reviews matching f, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, f repositories.ReviewFilter) ([]models.Review, error) {
	return s.reviewRepo.List(ctx, f)
}

// GetReview retrieves a single review.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

// CreateReview stores a review written by the requester. productID, when set,
// takes precedence over the product named in the input. Only customers who
// received the product may review it, once.
func (s *ReviewService) CreateReview(ctx context.Context, requester Requester, productID string, in ReviewInput) (*models.Review, error) {
	if productID == "" {
		productID = in.ProductID
	}
	if productID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "Review must belong to a product")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.New(apperrors.ErrValidation, "Rating must be between 1 and 5")
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	bought, err := s.orderRepo.HasCompletedPurchase(ctx, requester.UserID, productID)
	if err != nil {
		return nil, err
	}
	if !bought {
		return nil, apperrors.New(apperrors.ErrForbidden, "You can only review products you have received")
	}

	exists, err := s.reviewRepo.Exists(ctx, requester.UserID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.New(apperrors.ErrConflict, "You have already reviewed this product")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    requester.UserID,
		Rating:    in.Rating,
		Content:   in.Content,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview overwrites the rating and content of a review.
func (s *ReviewService) UpdateReview(ctx context.Context, id string, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.New(apperrors.ErrValidation, "Rating must be between 1 and 5")
	}
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Rating = in.Rating
	review.Content = in.Content
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	return s.reviewRepo.Delete(ctx, id)
}
