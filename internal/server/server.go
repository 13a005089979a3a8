package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/handler"
	"github.com/mihribandursun/sentiment-analysis/internal/middleware"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
)

// Services are the application services the HTTP layer exposes.
type Services struct {
	Auth    service.AuthService
	Catalog service.CatalogService
	Reviews service.ReviewService
}

type Options struct {
	Port            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Server struct {
	router   *gin.Engine
	opts     Options
	services Services
	logger   *zap.Logger
}

func NewServer(opts Options, services Services, accessLog *logrus.Logger, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.AccessLog(accessLog))
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s := &Server{
		router:   router,
		opts:     opts,
		services: services,
		logger:   logger,
	}

	s.setupRoutes()

	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	return cfg
}

func (s *Server) setupRoutes() {
	authHandler := handler.NewAuthHandler(s.services.Auth, s.logger)
	restaurantHandler := handler.NewRestaurantHandler(s.services.Catalog, s.logger)
	reviewHandler := handler.NewReviewHandler(s.services.Reviews, s.logger)
	requireAuth := middleware.RequireAuth(s.services.Auth, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	restaurants := s.router.Group("/api/restaurants")
	{
		restaurants.GET("", restaurantHandler.ListRestaurants)
		restaurants.GET("/:vendor_id", restaurantHandler.GetRestaurant)
		restaurants.POST("/:vendor_id/reviews", requireAuth, reviewHandler.SubmitReview)
		restaurants.DELETE("/:vendor_id/reviews/:id", requireAuth, reviewHandler.DeleteReview)
	}

	me := s.router.Group("/api/me")
	me.Use(requireAuth)
	{
		me.GET("/reviews", reviewHandler.ListMyReviews)
		me.DELETE("/reviews/:id", reviewHandler.DeleteReview)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}
