package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrEmptyReview          = errors.New("review text is empty")
	ErrReviewNotFound       = errors.New("review not found")
	ErrClassificationFailed = errors.New("failed to classify review")
)

// SentimentClassifier is satisfied by *classifier.Runtime.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// OwnReviewsPage is one page of the caller's review history.
type OwnReviewsPage struct {
	Reviews      []models.OwnReview `json:"reviews"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalReviews int                `json:"total_reviews"`
}

// ReviewService is the write side of user reviews. Every operation acts on
// behalf of the identity it is given.
type ReviewService interface {
	Submit(ctx context.Context, identity models.Identity, vendorID, text string) (*models.UserReview, error)
	Delete(ctx context.Context, identity models.Identity, reviewID int64) error
	ListOwn(ctx context.Context, identity models.Identity, page int) (*OwnReviewsPage, error)
}

type reviewService struct {
	classifier  SentimentClassifier
	restaurants repository.RestaurantRepository
	userReviews repository.UserReviewRepository
	logger      *zap.Logger
}

func NewReviewService(
	classifier SentimentClassifier,
	restaurants repository.RestaurantRepository,
	userReviews repository.UserReviewRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		classifier:  classifier,
		restaurants: restaurants,
		userReviews: userReviews,
		logger:      logger,
	}
}

// Submit classifies the trimmed text and stores it with its sentiment. Blank
// text is rejected before the classifier runs; nothing is stored when
// classification fails.
func (s *reviewService) Submit(ctx context.Context, identity models.Identity, vendorID, text string) (*models.UserReview, error) {
	if !identity.Valid() {
		return nil, ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReview
	}

	exists, err := s.restaurants.Exists(ctx, vendorID)
	if err != nil {
		s.logger.Error("Failed to check restaurant", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, fmt.Errorf("failed to check restaurant: %w", err)
	}
	if !exists {
		return nil, ErrRestaurantNotFound
	}

	sentiment, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Error("Failed to classify review",
			zap.Int64("user_id", identity.UserID),
			zap.String("vendor_id", vendorID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	review := &models.UserReview{
		UserID:         identity.UserID,
		VendorID:       vendorID,
		Text:           text,
		Sentiment:      sentiment.ID,
		SentimentLabel: sentiment.Label,
		Confidence:     sentiment.Confidence,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.userReviews.Create(ctx, review); err != nil {
		s.logger.Error("Failed to store review", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	s.logger.Info("Review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("user_id", identity.UserID),
		zap.String("vendor_id", vendorID),
		zap.String("sentiment", review.SentimentLabel),
		zap.Float64("confidence", review.Confidence))
	return review, nil
}

// Delete removes a review owned by identity. A missing review and someone
// else's review both yield ErrReviewNotFound.
func (s *reviewService) Delete(ctx context.Context, identity models.Identity, reviewID int64) error {
	if !identity.Valid() {
		return ErrUnauthenticated
	}

	deleted, err := s.userReviews.Delete(ctx, identity, reviewID)
	if err != nil {
		s.logger.Error("Failed to delete review", zap.Int64("review_id", reviewID), zap.Error(err))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if !deleted {
		s.logger.Info("Review delete denied or no-op",
			zap.Int64("review_id", reviewID),
			zap.Int64("user_id", identity.UserID))
		return ErrReviewNotFound
	}

	s.logger.Info("Review deleted", zap.Int64("review_id", reviewID), zap.Int64("user_id", identity.UserID))
	return nil
}

func (s *reviewService) ListOwn(ctx context.Context, identity models.Identity, page int) (*OwnReviewsPage, error) {
	if !identity.Valid() {
		return nil, ErrUnauthenticated
	}

	p := listing.NewPage(page, listing.OwnReviewsPageSize)
	reviews, err := s.userReviews.ListByUser(ctx, identity, p)
	if err != nil {
		s.logger.Error("Failed to list own reviews", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	total, err := s.userReviews.CountByUser(ctx, identity)
	if err != nil {
		s.logger.Error("Failed to count own reviews", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	return &OwnReviewsPage{
		Reviews:      reviews,
		Page:         p.Number,
		TotalPages:   listing.TotalPages(total, p.Size),
		TotalReviews: total,
	}, nil
}
