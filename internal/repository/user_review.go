package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

// UserReviewRepository stores reviews submitted through the service.
type UserReviewRepository interface {
	Create(ctx context.Context, review *models.UserReview) error
	Delete(ctx context.Context, identity models.Identity, reviewID int64) (bool, error)
	ListByUser(ctx context.Context, identity models.Identity, page listing.Page) ([]models.OwnReview, error)
	CountByUser(ctx context.Context, identity models.Identity) (int, error)
	ListByVendor(ctx context.Context, vendorID string) ([]models.CommunityReview, error)
}

type userReviewRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserReviewRepository(db *sqlx.DB, logger *zap.Logger) UserReviewRepository {
	return &userReviewRepository{db: db, logger: logger}
}

// Create inserts the review and its sentiment fields in one transaction and
// fills in the generated id.
func (r *userReviewRepository) Create(ctx context.Context, review *models.UserReview) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := r.db.Rebind(`
		INSERT INTO user_reviews (user_id, vendor_id, text, sentiment, sentiment_label, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err = tx.QueryRowxContext(ctx, query,
		review.UserID, review.VendorID, review.Text,
		review.Sentiment, review.SentimentLabel, review.Confidence, review.CreatedAt,
	).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user review: %w", err)
	}
	return nil
}

// Delete removes the review only if identity owns it. The ownership check and
// the delete are one statement, so a concurrent delete of the same row simply
// affects nothing. It reports whether a row was removed.
func (r *userReviewRepository) Delete(ctx context.Context, identity models.Identity, reviewID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_reviews WHERE id = ? AND user_id = ?`), reviewID, identity.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user review %d: %w", reviewID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return affected > 0, nil
}

func (r *userReviewRepository) ListByUser(ctx context.Context, identity models.Identity, page listing.Page) ([]models.OwnReview, error) {
	query := r.db.Rebind(`
		SELECT ur.id, ur.user_id, ur.vendor_id, ur.text, ur.sentiment, ur.sentiment_label,
		       ur.confidence, ur.created_at, r.restaurant_name
		FROM user_reviews ur
		JOIN restaurants r ON ur.vendor_id = r.vendor_id
		WHERE ur.user_id = ?
		ORDER BY ur.created_at DESC, ur.id DESC
		LIMIT ? OFFSET ?`)

	reviews := []models.OwnReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, identity.UserID, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list reviews of user %d: %w", identity.UserID, err)
	}
	return reviews, nil
}

func (r *userReviewRepository) CountByUser(ctx context.Context, identity models.Identity) (int, error) {
	var count int
	query := r.db.Rebind(`
		SELECT COUNT(*)
		FROM user_reviews ur
		JOIN restaurants r ON ur.vendor_id = r.vendor_id
		WHERE ur.user_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, identity.UserID); err != nil {
		return 0, fmt.Errorf("failed to count reviews of user %d: %w", identity.UserID, err)
	}
	return count, nil
}

func (r *userReviewRepository) ListByVendor(ctx context.Context, vendorID string) ([]models.CommunityReview, error) {
	query := r.db.Rebind(`
		SELECT ur.id, ur.user_id, ur.vendor_id, ur.text, ur.sentiment, ur.sentiment_label,
		       ur.confidence, ur.created_at, u.username
		FROM user_reviews ur
		JOIN users u ON ur.user_id = u.id
		WHERE ur.vendor_id = ?
		ORDER BY ur.created_at DESC, ur.id DESC`)

	reviews := []models.CommunityReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, vendorID); err != nil {
		return nil, fmt.Errorf("failed to list user reviews for %s: %w", vendorID, err)
	}
	return reviews, nil
}
