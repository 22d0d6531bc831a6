// Package app wires the application's dependencies together. It is the
// single place where concrete implementations are constructed and
// injected.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/modelplane/router/auth"
	"github.com/modelplane/router/config"
	"github.com/modelplane/router/internal/observability"
	"github.com/modelplane/router/middleware"
	"github.com/modelplane/router/repositories"
	"github.com/modelplane/router/repositories/postgres"
	"github.com/modelplane/router/services/analysis"
	"github.com/modelplane/router/services/audit"
	"github.com/modelplane/router/services/cognition"
	"github.com/modelplane/router/services/health"
	"github.com/modelplane/router/services/profile"
	"github.com/modelplane/router/services/providers"
	"github.com/modelplane/router/services/ratelimit"
	"github.com/modelplane/router/services/routing"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	DecisionLogs repositories.DecisionLogRepository

	// Services
	ProviderRegistry *providers.Registry
	ProfileService   *profile.Service
	AnalysisService  *analysis.Service
	CognitionService *cognition.Service
	HealthService    *health.Service
	AuditService     *audit.Service
	Router           *routing.RouterService

	// Observability
	Metrics *observability.Collector

	// HTTP plumbing
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	healthStop context.CancelFunc
	cacheStop  chan struct{}
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewCollector(),
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initServices(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.DecisionLogs = postgres.NewDecisionLogRepository(db, d.Logger)
	return nil
}

// initServices builds the provider registry, collaborators, and the
// routing engine
func (d *Dependencies) initServices(ctx context.Context, cfg *config.Config) error {
	available := make(map[string]bool, len(cfg.Providers.Available))
	for _, name := range cfg.Providers.Available {
		available[name] = true
	}
	probe := &providers.StaticProbe{Available: available}

	registry := providers.NewDefaultRegistry(probe)
	d.ProviderRegistry = registry

	d.ProfileService = profile.NewService(d.Logger)
	d.AnalysisService = analysis.NewService(registry, d.Logger)
	d.CognitionService = cognition.NewService(d.Logger)
	d.HealthService = health.NewService(registry, probe, cfg.Routing.HealthRefreshInterval, d.Logger)

	d.AuditService = audit.NewService(d.DecisionLogs, d.Logger, audit.DefaultConfig())
	if err := d.AuditService.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	estimator := routing.NewCostEstimator(registry.CostPer1KTokens)
	engine := routing.NewRefinementEngine(
		d.AnalysisService,
		d.HealthService,
		estimator,
		registry.DefaultModel,
		routing.DefaultRefinementTables(),
		d.Logger,
	)

	d.Router = routing.NewRouterService(
		routing.Config{
			CacheTTL:                 cfg.Routing.CacheTTL,
			CacheMaxSize:             cfg.Routing.CacheMaxSize,
			CacheConfidenceThreshold: cfg.Routing.CacheConfidenceThreshold,
			DynamicSteps:             cfg.Routing.DynamicSteps,
		},
		d.ProfileService,
		d.AnalysisService,
		d.CognitionService,
		d.HealthService,
		engine,
		d.AuditService,
		d.Metrics,
		d.Logger,
	)

	// health flips invalidate cached decisions naming the provider
	d.HealthService.SetInvalidator(d.Router)

	healthCtx, cancel := context.WithCancel(context.Background())
	d.healthStop = cancel
	d.HealthService.StartRefresher(healthCtx)

	d.cacheStop = make(chan struct{})
	d.Router.StartCacheCleanup(time.Minute, d.cacheStop)

	limiter := ratelimit.NewService(cfg.RateLimit.RequestsPerMinute, time.Minute, d.Logger)
	d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(limiter, d.Logger, cfg.RateLimit.Enabled)

	return nil
}

// initAuth wires the JWT validator into the auth middleware
func (d *Dependencies) initAuth(cfg *config.Config) error {
	if cfg.Auth.Disabled {
		d.Logger.Warn("authentication disabled, all requests pass as anonymous")
		d.AuthMiddleware = middleware.NewAuthMiddleware(nil, d.Logger, true)
		return nil
	}

	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, protected routes will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger, false)
		return nil
	}

	tokenService, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(tokenService, d.Logger, false)
	return nil
}

// rejectAllValidator rejects all tokens (used when no secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.healthStop != nil {
		d.healthStop()
	}
	if d.cacheStop != nil {
		close(d.cacheStop)
	}

	if d.AuditService != nil {
		if err := d.AuditService.Stop(5 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
