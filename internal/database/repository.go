package database

import (
	"github.com/culturebot/culturebot/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	review *models.ReviewModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		review: models.NewReview(db, logger),
	}
}

// Review returns the review model repository.
func (r *Repository) Review() *models.ReviewModel {
	return r.review
}
