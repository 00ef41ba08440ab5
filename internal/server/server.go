package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"inventory-hub/internal/cache"
	"inventory-hub/internal/config"
	"inventory-hub/internal/events"
	"inventory-hub/internal/metrics"
	custommiddleware "inventory-hub/internal/middleware"
	"inventory-hub/internal/ordering"
	"inventory-hub/internal/repository"
	"inventory-hub/internal/service"
	"inventory-hub/internal/telemetry"
	"inventory-hub/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Dependencies are the external resources the server owns once created
type Dependencies struct {
	DB        *sql.DB
	Redis     *redis.Client
	Publisher events.Publisher
	Registry  *prometheus.Registry

	// ShutdownTracer flushes pending spans, may be nil
	ShutdownTracer telemetry.ShutdownFunc
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
	server.Handler = server.routes()

	return server
}

func (s *Server) routes() http.Handler {
	cfg, logger, deps := s.config, s.logger, s.deps
	loc := cfg.Orders.Location()
	m := metrics.New(deps.Registry)

	// Create router
	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.Trace(otel.Tracer("inventory-hub/internal/server")))
	router.Use(custommiddleware.Metrics(m))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	// Initialize repositories
	productRepo := repository.NewProductRepository(deps.DB)
	orderRepo := repository.NewOrderRepository(deps.DB)
	stockLogRepo := repository.NewStockLogRepository(deps.DB)
	customerRepo := repository.NewCustomerRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	txm := repository.NewTxManager(deps.DB, cfg.Orders.TxMaxRetries)

	// Initialize services
	committer := ordering.NewCommitter(txm, ordering.NewNumberGenerator(loc))
	submissions := ordering.NewService(productRepo, committer, deps.Publisher, m, logger)
	productService := service.NewProductService(productRepo, categoryRepo, txm, deps.Publisher, logger)
	inventoryService := service.NewInventoryService(txm, deps.Publisher, m, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	customerService := service.NewCustomerService(customerRepo, orderRepo)
	historyService := service.NewStockHistoryService(stockLogRepo, loc, time.Now)
	overviewService := service.NewOverviewService(productRepo, orderRepo, loc, time.Now)

	// Initialize handlers
	healthHandler := transport.NewHealthHandler(s.healthChecks(), logger)
	productHandler := transport.NewProductHandler(productService, inventoryService, logger)
	orderHandler := transport.NewOrderHandler(submissions, orderService, logger)
	stockLogHandler := transport.NewStockLogHandler(historyService, logger)
	customerHandler := transport.NewCustomerHandler(customerService, logger)
	overviewHandler := transport.NewOverviewHandler(overviewService, logger)

	// Public routes
	router.Get("/health", healthHandler.Health)
	router.Handle(custommiddleware.MetricsPath, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	productHandler.RegisterPublicRoutes(router)

	// Authenticated routes
	ownerOnly := custommiddleware.RequireOwner(logger)
	idempotency := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		idempotency = custommiddleware.Idempotency(cache.NewIdempotencyStore(deps.Redis, cfg.Orders.IdempotencyTTL), logger)
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		if cfg.RateLimit.Enabled && deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "ratelimit",
			}, logger))
		}

		productHandler.RegisterRoutes(r, ownerOnly)
		orderHandler.RegisterRoutes(r, idempotency, ownerOnly)
		stockLogHandler.RegisterRoutes(r)
		customerHandler.RegisterRoutes(r)
		overviewHandler.RegisterRoutes(r)
	})

	return router
}

func (s *Server) healthChecks() map[string]transport.HealthCheck {
	checks := map[string]transport.HealthCheck{}
	if s.deps.DB != nil {
		checks["database"] = s.deps.DB.PingContext
	}
	if s.deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.deps.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.deps.Publisher.Close()

	if s.deps.ShutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.ShutdownTracer(ctx); err != nil {
			s.logger.Error("Failed to flush traces", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
