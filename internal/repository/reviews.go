package repository

import (
	"context"

	"github.com/repolens/reviewserver/internal/database"
	"github.com/repolens/reviewserver/internal/models"
)

var (
	// ErrNotFound is returned when a review does not exist
	ErrNotFound = database.ErrNotFound
)

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Get(ctx context.Context, reviewId string) (*models.Review, error)
	ListByUser(ctx context.Context, userId string) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
}

// dynamoReviewRepository implements ReviewRepository using DynamoDB
type dynamoReviewRepository struct {
	db *database.ReviewOperations
}

// NewReviewRepository creates a new DynamoDB-backed review repository
func NewReviewRepository(db *database.ReviewOperations) ReviewRepository {
	return &dynamoReviewRepository{
		db: db,
	}
}

// Create stores a new review record
func (r *dynamoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.CreateReview(ctx, review)
}

// Get retrieves a review by its ID
func (r *dynamoReviewRepository) Get(ctx context.Context, reviewId string) (*models.Review, error) {
	return r.db.GetReview(ctx, reviewId)
}

// ListByUser retrieves all reviews submitted by a user
func (r *dynamoReviewRepository) ListByUser(ctx context.Context, userId string) ([]*models.Review, error) {
	return r.db.GetReviewsByUserId(ctx, userId)
}

// Update updates a review record with all fields
func (r *dynamoReviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.UpdateReview(ctx, review)
}
