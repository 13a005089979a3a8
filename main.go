package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/cache"
	"github.com/mihribandursun/sentiment-analysis/internal/classifier"
	"github.com/mihribandursun/sentiment-analysis/internal/config"
	"github.com/mihribandursun/sentiment-analysis/internal/middleware"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
	"github.com/mihribandursun/sentiment-analysis/internal/server"
	"github.com/mihribandursun/sentiment-analysis/internal/service"
)

const defaultConfigPath = "configs/config.yml"

func main() {
	cfgPath := defaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		cfgPath = p
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Database connection
	db, err := repository.NewDB(ctx, repository.DBOptions{
		Driver:         cfg.Database.Driver,
		URL:            cfg.Database.URL,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		ConnectRetries: cfg.Database.ConnectRetries,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The classifier is loaded once; a missing or broken model is fatal.
	runtime, err := classifier.Load(classifier.Options{
		ModelDir:       cfg.Classifier.ModelDir,
		Endpoint:       cfg.Classifier.Endpoint,
		LibraryPath:    cfg.Classifier.LibraryPath,
		Device:         cfg.Classifier.Device,
		MaxLength:      cfg.Classifier.MaxLength,
		Timeout:        cfg.Classifier.Timeout,
		IntraOpThreads: cfg.Classifier.IntraOpThreads,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to load sentiment classifier", zap.Error(err))
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Warn("Failed to release classifier", zap.Error(err))
		}
	}()

	var facets cache.FacetCache = cache.NopFacetCache{}
	if cfg.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.Options{
			Address:  cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, facet cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			facets = cache.NewRedisFacetCache(client, cfg.Cache.FacetTTL, logger)
			logger.Info("Facet cache enabled", zap.String("redis", cfg.Cache.RedisAddr))
		}
	}

	// Initialize repositories
	authRepo := repository.NewAuthRepository(db, logger)
	restaurantRepo := repository.NewRestaurantRepository(db, logger)
	reviewRepo := repository.NewReviewRepository(db, logger)
	userReviewRepo := repository.NewUserReviewRepository(db, logger)

	services := server.Services{
		Auth:    service.NewAuthService(authRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
		Catalog: service.NewCatalogService(restaurantRepo, reviewRepo, userReviewRepo, facets, logger),
		Reviews: service.NewReviewService(runtime, restaurantRepo, userReviewRepo, logger),
	}

	srv := server.NewServer(server.Options{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}, services, middleware.NewAccessLogger(cfg.Log.Development), logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	logger.Info("Application stopped.")
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
