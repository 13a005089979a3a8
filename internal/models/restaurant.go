package models

// RestaurantStats is derived from verified reviews at query time.
// The percentage and rating fields are nil when TotalReviews is zero.
type RestaurantStats struct {
	TotalReviews int      `db:"total_reviews" json:"total_reviews"`
	PositivePct  *float64 `db:"positive_pct" json:"positive_pct"`
	NegativePct  *float64 `db:"negative_pct" json:"negative_pct"`
	AvgRating    *float64 `db:"avg_rating" json:"avg_rating"`
}

// RestaurantSummary is one row of the ranked catalog listing.
type RestaurantSummary struct {
	VendorID     string  `db:"vendor_id" json:"vendor_id"`
	Name         string  `db:"restaurant_name" json:"restaurant_name"`
	District     string  `db:"district" json:"district"`
	Image        *string `db:"img" json:"img"`
	CuisineType  string  `db:"cuisine_type" json:"cuisine_type"`
	HasRealImage bool    `db:"has_real_image" json:"has_real_image"`
	RestaurantStats
}

// Restaurant is the full catalog record together with its statistics.
type Restaurant struct {
	VendorID     string  `db:"vendor_id" json:"vendor_id"`
	Name         string  `db:"restaurant_name" json:"restaurant_name"`
	District     string  `db:"district" json:"district"`
	Image        *string `db:"img" json:"img"`
	CuisineType  string  `db:"cuisine_type" json:"cuisine_type"`
	PriceRange   *string `db:"price_range" json:"price_range"`
	MinOrder     *string `db:"min_order" json:"min_order"`
	DeliveryTime *string `db:"delivery_time" json:"delivery_time"`
	DeliveryType *string `db:"delivery_type" json:"delivery_type"`
	RestaurantStats
}
