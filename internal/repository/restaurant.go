package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

// RestaurantRepository reads the restaurant catalog together with statistics
// aggregated from verified reviews.
type RestaurantRepository interface {
	List(ctx context.Context, plan listing.Plan) ([]models.RestaurantSummary, error)
	Count(ctx context.Context, plan listing.Plan) (int, error)
	GetByVendorID(ctx context.Context, vendorID string) (*models.Restaurant, error)
	Exists(ctx context.Context, vendorID string) (bool, error)
	Districts(ctx context.Context) ([]string, error)
	Cuisines(ctx context.Context) ([]string, error)
}

type restaurantRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRestaurantRepository(db *sqlx.DB, logger *zap.Logger) RestaurantRepository {
	return &restaurantRepository{db: db, logger: logger}
}

// statsColumns aggregates the LEFT JOINed reviews (alias v). Percentages and
// the average are NULL when a restaurant has no reviews; rows whose sentiment
// is NULL count towards the total only.
const statsColumns = `
	COUNT(v.id) AS total_reviews,
	ROUND(100.0 * SUM(CASE WHEN v.sentiment = 1 THEN 1 ELSE 0 END) / NULLIF(COUNT(v.id), 0), 2) AS positive_pct,
	ROUND(100.0 * SUM(CASE WHEN v.sentiment = 0 THEN 1 ELSE 0 END) / NULLIF(COUNT(v.id), 0), 2) AS negative_pct,
	ROUND(CAST(AVG(v.overall_score) AS NUMERIC), 2) AS avg_rating`

const hasRealImageColumn = `
	CASE
		WHEN r.img IS NOT NULL AND r.img <> '' AND LOWER(r.img) NOT LIKE '%placeholder%' THEN 1
		ELSE 0
	END AS has_real_image`

func (r *restaurantRepository) List(ctx context.Context, plan listing.Plan) ([]models.RestaurantSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			r.vendor_id,
			r.restaurant_name,
			r.district,
			r.img,
			r.cuisine_type,
			%s,
			%s
		FROM restaurants r
		LEFT JOIN reviews v ON r.vendor_id = v.vendor_id
		%s
		GROUP BY r.vendor_id, r.restaurant_name, r.district, r.img, r.cuisine_type
		ORDER BY %s
		LIMIT ? OFFSET ?`, statsColumns, hasRealImageColumn, plan.Where, plan.OrderBy)

	restaurants := []models.RestaurantSummary{}
	if err := r.db.SelectContext(ctx, &restaurants, r.db.Rebind(query), plan.PageArgs()...); err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, nil
}

func (r *restaurantRepository) Count(ctx context.Context, plan listing.Plan) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM restaurants r %s`, plan.Where)

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), plan.Args...); err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return count, nil
}

func (r *restaurantRepository) GetByVendorID(ctx context.Context, vendorID string) (*models.Restaurant, error) {
	query := fmt.Sprintf(`
		SELECT
			r.vendor_id,
			r.restaurant_name,
			r.district,
			r.img,
			r.cuisine_type,
			r.price_range,
			r.min_order,
			r.delivery_time,
			r.delivery_type,
			%s
		FROM restaurants r
		LEFT JOIN reviews v ON r.vendor_id = v.vendor_id
		WHERE r.vendor_id = ?
		GROUP BY r.vendor_id, r.restaurant_name, r.district, r.img, r.cuisine_type,
		         r.price_range, r.min_order, r.delivery_time, r.delivery_type`, statsColumns)

	var restaurant models.Restaurant
	err := r.db.GetContext(ctx, &restaurant, r.db.Rebind(query), vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant %s: %w", vendorID, err)
	}
	return &restaurant, nil
}

func (r *restaurantRepository) Exists(ctx context.Context, vendorID string) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM restaurants WHERE vendor_id = ?)`)
	if err := r.db.GetContext(ctx, &exists, query, vendorID); err != nil {
		return false, fmt.Errorf("failed to check restaurant %s: %w", vendorID, err)
	}
	return exists, nil
}

func (r *restaurantRepository) Districts(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "district")
}

func (r *restaurantRepository) Cuisines(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "cuisine_type")
}

// distinct is only called with the fixed column names above.
func (r *restaurantRepository) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM restaurants WHERE %[1]s <> '' ORDER BY %[1]s`, column)

	values := []string{}
	if err := r.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	return values, nil
}
