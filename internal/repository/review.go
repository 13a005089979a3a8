package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

// ReviewRepository reads bulk-loaded verified reviews. There is no write path:
// the catalog loader owns these rows.
type ReviewRepository interface {
	ListByVendor(ctx context.Context, vendorID string, page listing.Page) ([]models.VerifiedReview, error)
	CountByVendor(ctx context.Context, vendorID string) (int, error)
}

type reviewRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewReviewRepository(db *sqlx.DB, logger *zap.Logger) ReviewRepository {
	return &reviewRepository{db: db, logger: logger}
}

func (r *reviewRepository) ListByVendor(ctx context.Context, vendorID string, page listing.Page) ([]models.VerifiedReview, error) {
	query := r.db.Rebind(`
		SELECT id, vendor_id, reviewer_name, text, sentiment, sentiment_label, overall_score, created_at
		FROM reviews
		WHERE vendor_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	reviews := []models.VerifiedReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, vendorID, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list reviews for %s: %w", vendorID, err)
	}
	return reviews, nil
}

func (r *reviewRepository) CountByVendor(ctx context.Context, vendorID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE vendor_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, vendorID); err != nil {
		return 0, fmt.Errorf("failed to count reviews for %s: %w", vendorID, err)
	}
	return count, nil
}
