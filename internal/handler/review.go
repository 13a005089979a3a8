package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/middleware"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
)

type ReviewHandler interface {
	SubmitReview(c *gin.Context)
	DeleteReview(c *gin.Context)
	ListMyReviews(c *gin.Context)
}

type reviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) ReviewHandler {
	return &reviewHandler{reviews: reviews, logger: logger}
}

type SubmitReviewRequest struct {
	ReviewText string `json:"review_text"`
}

// SubmitReview handles POST /api/restaurants/:vendor_id/reviews
func (h *reviewHandler) SubmitReview(c *gin.Context) {
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Failed to bind JSON for review", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("vendor_id"), req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		case errors.Is(err, service.ErrEmptyReview):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Review text cannot be empty"})
		case errors.Is(err, service.ErrRestaurantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		case errors.Is(err, service.ErrClassificationFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify review"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save review"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review submitted successfully",
		"review":  review,
	})
}

// DeleteReview handles DELETE /api/me/reviews/:id and
// DELETE /api/restaurants/:vendor_id/reviews/:id
func (h *reviewHandler) DeleteReview(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		case errors.Is(err, service.ErrReviewNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// ListMyReviews handles GET /api/me/reviews
func (h *reviewHandler) ListMyReviews(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	result, err := h.reviews.ListOwn(c.Request.Context(), middleware.CurrentIdentity(c), page)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reviews"})
		return
	}

	c.JSON(http.StatusOK, result)
}
