package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/listing"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
)

type RestaurantHandler interface {
	ListRestaurants(c *gin.Context)
	GetRestaurant(c *gin.Context)
}

type restaurantHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewRestaurantHandler(catalog service.CatalogService, logger *zap.Logger) RestaurantHandler {
	return &restaurantHandler{catalog: catalog, logger: logger}
}

// ListRestaurants handles GET /api/restaurants
// Query parameters:
// - page: 1-indexed page (optional)
// - filter: popular, positive, negative or rating (optional, default popular)
// - district, cuisine: exact match (optional)
// - q: case-insensitive name search (optional)
func (h *restaurantHandler) ListRestaurants(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	filter := listing.Filter{
		District: c.Query("district"),
		Cuisine:  c.Query("cuisine"),
		Search:   c.Query("q"),
	}

	result, err := h.catalog.ListRestaurants(c.Request.Context(), filter, c.DefaultQuery("filter", string(listing.SortPopular)), page)
	if err != nil {
		h.logger.Error("Failed to list restaurants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve restaurants"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRestaurant handles GET /api/restaurants/:vendor_id
func (h *restaurantHandler) GetRestaurant(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	vendorID := c.Param("vendor_id")
	detail, err := h.catalog.RestaurantDetail(c.Request.Context(), vendorID, page)
	if err != nil {
		if errors.Is(err, service.ErrRestaurantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
			return
		}
		h.logger.Error("Failed to get restaurant", zap.String("vendor_id", vendorID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve restaurant"})
		return
	}

	c.JSON(http.StatusOK, detail)
}
