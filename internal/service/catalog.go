package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mihribandursun/sentiment-analysis/internal/cache"
	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

// RestaurantPage is one page of the ranked catalog.
type RestaurantPage struct {
	Restaurants []models.RestaurantSummary `json:"restaurants"`
	Page        int                        `json:"page"`
	TotalPages  int                        `json:"total_pages"`
	TotalCount  int                        `json:"total_count"`
	Sort        listing.SortKey            `json:"filter"`
	Districts   []string                   `json:"districts"`
	Cuisines    []string                   `json:"cuisines"`
}

// RestaurantDetail is a restaurant with one page of its verified reviews and
// every review submitted by users.
type RestaurantDetail struct {
	Restaurant   *models.Restaurant       `json:"restaurant"`
	Reviews      []models.VerifiedReview  `json:"reviews"`
	Page         int                      `json:"page"`
	TotalPages   int                      `json:"total_pages"`
	TotalReviews int                      `json:"total_reviews"`
	UserReviews  []models.CommunityReview `json:"user_reviews"`
}

type CatalogService interface {
	ListRestaurants(ctx context.Context, filter listing.Filter, sort string, page int) (*RestaurantPage, error)
	RestaurantDetail(ctx context.Context, vendorID string, page int) (*RestaurantDetail, error)
}

type catalogService struct {
	restaurants repository.RestaurantRepository
	reviews     repository.ReviewRepository
	userReviews repository.UserReviewRepository
	facets      cache.FacetCache
	logger      *zap.Logger
}

func NewCatalogService(
	restaurants repository.RestaurantRepository,
	reviews repository.ReviewRepository,
	userReviews repository.UserReviewRepository,
	facets cache.FacetCache,
	logger *zap.Logger,
) CatalogService {
	if facets == nil {
		facets = cache.NopFacetCache{}
	}
	return &catalogService{
		restaurants: restaurants,
		reviews:     reviews,
		userReviews: userReviews,
		facets:      facets,
		logger:      logger,
	}
}

// ListRestaurants runs the page query, the count query and the facet lookups
// concurrently. Page and count share one compiled plan.
func (s *catalogService) ListRestaurants(ctx context.Context, filter listing.Filter, sort string, page int) (*RestaurantPage, error) {
	plan := listing.Compile(filter, listing.SortKey(sort), listing.NewPage(page, listing.CatalogPageSize))

	result := &RestaurantPage{
		Page: plan.Page.Number,
		Sort: plan.Sort,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.restaurants.List(gctx, plan)
		result.Restaurants = rows
		return err
	})
	g.Go(func() error {
		total, err := s.restaurants.Count(gctx, plan)
		result.TotalCount = total
		return err
	})
	g.Go(func() error {
		values, err := s.facet(gctx, cache.KeyDistricts, s.restaurants.Districts)
		result.Districts = values
		return err
	})
	g.Go(func() error {
		values, err := s.facet(gctx, cache.KeyCuisines, s.restaurants.Cuisines)
		result.Cuisines = values
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to list restaurants", zap.Error(err))
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	result.TotalPages = listing.TotalPages(result.TotalCount, plan.Page.Size)
	return result, nil
}

// facet reads a facet list through the cache. Cache failures degrade to a
// database read.
func (s *catalogService) facet(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	values, ok, err := s.facets.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Facet cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return values, nil
	}

	values, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.facets.Set(ctx, key, values); err != nil {
		s.logger.Warn("Facet cache write failed", zap.String("key", key), zap.Error(err))
	}
	return values, nil
}

func (s *catalogService) RestaurantDetail(ctx context.Context, vendorID string, page int) (*RestaurantDetail, error) {
	feedPage := listing.NewPage(page, listing.FeedPageSize)
	detail := &RestaurantDetail{Page: feedPage.Number}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		restaurant, err := s.restaurants.GetByVendorID(gctx, vendorID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRestaurantNotFound
		}
		detail.Restaurant = restaurant
		return err
	})
	g.Go(func() error {
		reviews, err := s.reviews.ListByVendor(gctx, vendorID, feedPage)
		detail.Reviews = reviews
		return err
	})
	g.Go(func() error {
		total, err := s.reviews.CountByVendor(gctx, vendorID)
		detail.TotalReviews = total
		return err
	})
	g.Go(func() error {
		userReviews, err := s.userReviews.ListByVendor(gctx, vendorID)
		detail.UserReviews = userReviews
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to load restaurant detail", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, fmt.Errorf("failed to load restaurant %s: %w", vendorID, err)
	}

	detail.TotalPages = listing.TotalPages(detail.TotalReviews, feedPage.Size)
	return detail, nil
}
