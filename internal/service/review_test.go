package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
	"github.com/mihribandursun/sentiment-analysis/internal/testutil"
)

// fakeClassifier labels text containing "amazing" as positive and everything
// else as negative.
type fakeClassifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (models.Sentiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.Sentiment{}, f.err
	}
	if strings.Contains(strings.ToLower(text), "amazing") {
		return models.Sentiment{ID: models.SentimentPositive, Label: models.LabelPositive, Confidence: 98.76}, nil
	}
	return models.Sentiment{ID: models.SentimentNegative, Label: models.LabelNegative, Confidence: 81.2}, nil
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type reviewFixture struct {
	db         *sqlx.DB
	svc        service.ReviewService
	classifier *fakeClassifier
	alice, bob models.Identity
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.SeedRestaurant(t, db, models.Restaurant{VendorID: "V1", Name: "Burger House", District: "Kadikoy", CuisineType: "Burger"})
	testutil.SeedRestaurant(t, db, models.Restaurant{VendorID: "V2", Name: "Doner Usta", District: "Sisli", CuisineType: "Doner"})

	logger := zap.NewNop()
	fc := &fakeClassifier{}
	return &reviewFixture{
		db: db,
		svc: service.NewReviewService(fc,
			repository.NewRestaurantRepository(db, logger),
			repository.NewUserReviewRepository(db, logger),
			logger),
		classifier: fc,
		alice:      testutil.SeedUser(t, db, "alice"),
		bob:        testutil.SeedUser(t, db, "bob"),
	}
}

func (f *reviewFixture) storedReviews(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM user_reviews`))
	return n
}

func TestSubmitPositiveReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.Submit(ctx, f.alice, "V1", "  The food was amazing and arrived hot!  ")
	require.NoError(t, err)

	assert.NotZero(t, review.ID)
	assert.Equal(t, "The food was amazing and arrived hot!", review.Text)
	assert.Equal(t, models.SentimentPositive, review.Sentiment)
	assert.Equal(t, models.LabelPositive, review.SentimentLabel)
	assert.InDelta(t, 98.76, review.Confidence, 0.0001)

	own, err := f.svc.ListOwn(ctx, f.alice, 1)
	require.NoError(t, err)
	require.Len(t, own.Reviews, 1)
	assert.Equal(t, review.ID, own.Reviews[0].ID)
	assert.Equal(t, "Burger House", own.Reviews[0].RestaurantName)
	assert.Equal(t, 1, own.TotalReviews)
	assert.Equal(t, 1, own.TotalPages)
}

func TestSubmitRejectsBlankTextWithoutClassifying(t *testing.T) {
	f := newReviewFixture(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Submit(context.Background(), f.alice, "V1", text)
		assert.ErrorIs(t, err, service.ErrEmptyReview)
	}
	assert.Equal(t, 0, f.classifier.Calls())
	assert.Equal(t, 0, f.storedReviews(t))
}

func TestSubmitUnknownRestaurant(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.Submit(context.Background(), f.alice, "missing", "amazing")
	assert.ErrorIs(t, err, service.ErrRestaurantNotFound)
	assert.Equal(t, 0, f.classifier.Calls())
}

func TestSubmitClassifierFailureStoresNothing(t *testing.T) {
	f := newReviewFixture(t)
	f.classifier.err = errors.New("session exploded")

	_, err := f.svc.Submit(context.Background(), f.alice, "V1", "amazing")
	assert.ErrorIs(t, err, service.ErrClassificationFailed)
	assert.Equal(t, 0, f.storedReviews(t))
}

func TestSubmitRequiresIdentity(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, models.Identity{}, "V1", "amazing")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.Delete(ctx, models.Identity{}, 1), service.ErrUnauthenticated)
	_, err = f.svc.ListOwn(ctx, models.Identity{}, 1)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestDeleteOwnership(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.Submit(ctx, f.alice, "V1", "cold and late")
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.bob, review.ID)
	assert.ErrorIs(t, err, service.ErrReviewNotFound, "foreign delete is denied")
	assert.Equal(t, 1, f.storedReviews(t))

	require.NoError(t, f.svc.Delete(ctx, f.alice, review.ID))
	assert.Equal(t, 0, f.storedReviews(t))

	own, err := f.svc.ListOwn(ctx, f.alice, 1)
	require.NoError(t, err)
	assert.Empty(t, own.Reviews)
	assert.Equal(t, 0, own.TotalPages)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, review.ID), service.ErrReviewNotFound, "second delete is a no-op")
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, 999999), service.ErrReviewNotFound)
}

func TestListOwnPages(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		_, err := f.svc.Submit(ctx, f.alice, "V2", "amazing doner")
		require.NoError(t, err)
	}
	_, err := f.svc.Submit(ctx, f.bob, "V2", "amazing doner")
	require.NoError(t, err)

	first, err := f.svc.ListOwn(ctx, f.alice, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page, "page below 1 is clamped")
	assert.Len(t, first.Reviews, 12)
	assert.Equal(t, 13, first.TotalReviews)
	assert.Equal(t, 2, first.TotalPages)

	second, err := f.svc.ListOwn(ctx, f.alice, 2)
	require.NoError(t, err)
	assert.Len(t, second.Reviews, 1)
	for _, r := range append(first.Reviews, second.Reviews...) {
		assert.Equal(t, f.alice.UserID, r.UserID)
	}
}
