package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ecommerce-platform/internal/cache"
	"ecommerce-platform/internal/config"
	"ecommerce-platform/internal/database"
	custommiddleware "ecommerce-platform/internal/middleware"
	"ecommerce-platform/internal/repository"
	"ecommerce-platform/internal/service"
	"ecommerce-platform/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// Options holds collaborators that are served by other systems
type Options struct {
	// Orders serves /order/ and /order/history/; nil answers 501
	Orders http.Handler
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, opts Options) (*Server, error) {
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" || cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	rootNames, err := newRootNameCache(cfg.Cache, redisClient)
	if err != nil {
		return nil, err
	}

	renderer, err := transport.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	// Create router
	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(logger)...)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	if cfg.RateLimit.Enabled {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rl",
		}, logger))
	}

	router.Get("/health", healthHandler(db))
	router.Handle("/metrics", promhttp.Handler())

	// Initialize repositories
	sqlDB := db.DB()
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	accountRepo := repository.NewAccountRepository(sqlDB)
	cartRepo := repository.NewCartRepository(sqlDB)

	// Initialize services
	categoryService := service.NewCategoryService(categoryRepo, rootNames, cfg.Catalog.AdminPageSize, logger)
	productService := service.NewProductService(productRepo, categoryRepo, cfg.Catalog.AdminPageSize, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, repository.NewReadRunner(sqlDB), cfg.Catalog.PageSize, logger)
	accountService := service.NewAccountService(accountRepo, cartRepo, logger, service.CartProvisioner(cartRepo, logger))

	// Initialize handlers
	presenter := transport.NewPresenter(cfg.Catalog.MediaBaseURL)
	storeHandler := transport.NewStoreHandler(catalogService, presenter, renderer, opts.Orders, logger)
	adminHandler := transport.NewAdminHandler(productService, categoryService, presenter, logger)
	accountHandler := transport.NewAccountHandler(accountService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Register routes
	storeHandler.RegisterRoutes(router)
	adminHandler.RegisterRoutes(router, authMiddleware, custommiddleware.RequireAdmin(logger))
	accountHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

// newRootNameCache picks the root-name cache backend
func newRootNameCache(cfg config.CacheConfig, client *redis.Client) (cache.RootNameCache, error) {
	ttl := cfg.RootNameTTL
	if ttl <= 0 {
		ttl = cache.DefaultRootNameTTL
	}

	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryCache(ttl), nil
	case "redis":
		return cache.NewRedisCache(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	}
}

// Ping checks the redis connection when one is configured
func (s *Server) Ping(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Ping(ctx).Err()
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
