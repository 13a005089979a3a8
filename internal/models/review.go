package models

import "time"

// VerifiedReview is a bulk-loaded review. Its sentiment was labelled at
// ingestion time and may be absent.
type VerifiedReview struct {
	ID             int64     `db:"id" json:"id"`
	VendorID       string    `db:"vendor_id" json:"vendor_id"`
	ReviewerName   *string   `db:"reviewer_name" json:"reviewer_name"`
	Text           string    `db:"text" json:"review_text"`
	Sentiment      *int      `db:"sentiment" json:"sentiment"`
	SentimentLabel *string   `db:"sentiment_label" json:"sentiment_label"`
	OverallScore   *float64  `db:"overall_score" json:"overall_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// UserReview is a review submitted through the service and classified on
// submission. Only its owner may delete it.
type UserReview struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	VendorID       string    `db:"vendor_id" json:"vendor_id"`
	Text           string    `db:"text" json:"review_text"`
	Sentiment      int       `db:"sentiment" json:"sentiment"`
	SentimentLabel string    `db:"sentiment_label" json:"sentiment_label"`
	Confidence     float64   `db:"confidence" json:"confidence"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// OwnReview is a user review as listed in its author's history.
type OwnReview struct {
	UserReview
	RestaurantName string `db:"restaurant_name" json:"restaurant_name"`
}

// CommunityReview is a user review as shown on a restaurant page.
type CommunityReview struct {
	UserReview
	Username string `db:"username" json:"username"`
}
