package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/cache"
	"github.com/mihribandursun/sentiment-analysis/internal/middleware"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
	"github.com/mihribandursun/sentiment-analysis/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type keywordClassifier struct{}

func (keywordClassifier) Classify(_ context.Context, text string) (models.Sentiment, error) {
	if strings.Contains(strings.ToLower(text), "amazing") {
		return models.Sentiment{ID: 1, Label: models.LabelPositive, Confidence: 97.5}, nil
	}
	return models.Sentiment{ID: 0, Label: models.LabelNegative, Confidence: 88.25}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.SeedRestaurant(t, db, models.Restaurant{VendorID: "V1", Name: "Burger House", District: "Kadikoy", CuisineType: "Burger", Image: testutil.Ptr("https://img.example.com/v1.jpg")})
	testutil.SeedRestaurant(t, db, models.Restaurant{VendorID: "V2", Name: "Doner Usta", District: "Sisli", CuisineType: "Doner"})
	testutil.SeedVerifiedReview(t, db, "V2", testutil.Ptr(1), 5, time.Now().UTC())

	logger := zap.NewNop()
	restaurants := repository.NewRestaurantRepository(db, logger)
	userReviews := repository.NewUserReviewRepository(db, logger)

	services := Services{
		Auth: service.NewAuthService(repository.NewAuthRepository(db, logger), "test-secret", time.Hour, logger),
		Catalog: service.NewCatalogService(restaurants, repository.NewReviewRepository(db, logger), userReviews,
			cache.NopFacetCache{}, logger),
		Reviews: service.NewReviewService(keywordClassifier{}, restaurants, userReviews, logger),
	}

	accessLog := middleware.NewAccessLogger(false)
	accessLog.SetOutput(io.Discard)

	return NewServer(Options{Port: "0", ShutdownTimeout: time.Second}, services, accessLog, logger).Handler()
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) call(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func (c *client) signUp(username string) {
	c.t.Helper()
	email := username + "@example.com"
	status, _ := c.call(http.MethodPost, "/api/auth/register", gin.H{"username": username, "email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusCreated, status)

	status, body := c.call(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusOK, status)
	c.token = body["token"].(string)
}

func TestPing(t *testing.T) {
	c := &client{t: t, h: newTestServer(t)}
	status, body := c.call(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", body["message"])
}

func TestReviewLifecycle(t *testing.T) {
	h := newTestServer(t)
	alice := &client{t: t, h: h}
	alice.signUp("alice")
	bob := &client{t: t, h: h}
	bob.signUp("bob")

	status, body := alice.call(http.MethodPost, "/api/restaurants/V1/reviews", gin.H{"review_text": "The food was amazing and arrived hot!"})
	require.Equal(t, http.StatusCreated, status)
	review := body["review"].(map[string]any)
	assert.Equal(t, "POSITIVE", review["sentiment_label"])
	assert.Equal(t, 97.5, review["confidence"])
	reviewID := int64(review["id"].(float64))

	status, body = alice.call(http.MethodGet, "/api/me/reviews", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_reviews"])
	own := body["reviews"].([]any)
	require.Len(t, own, 1)
	assert.Equal(t, "Burger House", own[0].(map[string]any)["restaurant_name"])

	status, body = alice.call(http.MethodGet, "/api/restaurants/V1", nil)
	require.Equal(t, http.StatusOK, status)
	userReviews := body["user_reviews"].([]any)
	require.Len(t, userReviews, 1)
	assert.Equal(t, "alice", userReviews[0].(map[string]any)["username"])

	deletePath := fmt.Sprintf("/api/me/reviews/%d", reviewID)
	status, _ = bob.call(http.MethodDelete, deletePath, nil)
	assert.Equal(t, http.StatusNotFound, status, "foreign delete looks like a missing review")

	status, _ = alice.call(http.MethodDelete, fmt.Sprintf("/api/restaurants/V1/reviews/%d", reviewID), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = alice.call(http.MethodDelete, deletePath, nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, body = alice.call(http.MethodGet, "/api/me/reviews", nil)
	assert.Empty(t, body["reviews"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	anon := &client{t: t, h: newTestServer(t)}

	status, _ := anon.call(http.MethodPost, "/api/restaurants/V1/reviews", gin.H{"review_text": "amazing"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = anon.call(http.MethodGet, "/api/me/reviews", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = anon.call(http.MethodDelete, "/api/me/reviews/1", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSubmitValidation(t *testing.T) {
	c := &client{t: t, h: newTestServer(t)}
	c.signUp("alice")

	status, body := c.call(http.MethodPost, "/api/restaurants/V1/reviews", gin.H{"review_text": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Review text cannot be empty", body["error"])

	status, _ = c.call(http.MethodPost, "/api/restaurants/nope/reviews", gin.H{"review_text": "amazing"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPublicCatalog(t *testing.T) {
	c := &client{t: t, h: newTestServer(t)}

	status, body := c.call(http.MethodGet, "/api/restaurants?filter=bogus", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "popular", body["filter"])
	assert.Equal(t, float64(2), body["total_count"])
	assert.Equal(t, float64(1), body["total_pages"])
	rows := body["restaurants"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	assert.Equal(t, "V1", first["vendor_id"], "real image first despite fewer reviews")
	assert.Nil(t, first["positive_pct"])
	assert.Equal(t, []any{"Kadikoy", "Sisli"}, body["districts"])

	status, _ = c.call(http.MethodGet, "/api/restaurants/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegisterConflictNamesField(t *testing.T) {
	c := &client{t: t, h: newTestServer(t)}
	c.signUp("alice")

	status, body := c.call(http.MethodPost, "/api/auth/register", gin.H{"username": "alice2", "email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", body["error"])
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := NewServer(Options{Port: "0", ShutdownTimeout: time.Second}, Services{Auth: service.NewAuthService(nil, "s", time.Hour, zap.NewNop())}, middleware.NewAccessLogger(false), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
