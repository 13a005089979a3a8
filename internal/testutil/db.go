// Package testutil provides an in-memory database migrated with the
// production schema, plus seed helpers for catalog data.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
)

const memoryDSN = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// NewDB returns a fresh, migrated SQLite database private to the test.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := repository.NewDB(context.Background(), repository.DBOptions{
		Driver:         repository.DriverSQLite,
		URL:            memoryDSN,
		ConnectRetries: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.MigrateDB(db, repository.DriverSQLite, logger))
	return db
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// SeedRestaurant inserts a catalog row.
func SeedRestaurant(t testing.TB, db *sqlx.DB, r models.Restaurant) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO restaurants (vendor_id, restaurant_name, district, img, cuisine_type,
		                         price_range, min_order, delivery_time, delivery_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.VendorID, r.Name, r.District, r.Image, r.CuisineType,
		r.PriceRange, r.MinOrder, r.DeliveryTime, r.DeliveryType)
	require.NoError(t, err)
}

// SeedVerifiedReview inserts a bulk-loaded review. A nil sentiment models a
// row that was never labelled.
func SeedVerifiedReview(t testing.TB, db *sqlx.DB, vendorID string, sentiment *int, score float64, createdAt time.Time) {
	t.Helper()
	var label *string
	if sentiment != nil {
		label = Ptr(models.LabelFor(*sentiment))
	}
	_, err := db.Exec(`
		INSERT INTO reviews (vendor_id, reviewer_name, text, sentiment, sentiment_label, overall_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		vendorID, "reviewer", "verified review text", sentiment, label, score, createdAt.UTC())
	require.NoError(t, err)
}

// SeedUser inserts an account with a throwaway password hash.
func SeedUser(t testing.TB, db *sqlx.DB, username string) models.Identity {
	t.Helper()
	var id int64
	err := db.QueryRowx(`
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`,
		username, username+"@example.com", "x", time.Now().UTC()).Scan(&id)
	require.NoError(t, err)
	return models.Identity{UserID: id, Username: username}
}
