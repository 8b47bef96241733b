// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/canteen-backend/internal/admin"
	"github.com/carterperez-dev/canteen-backend/internal/allergy"
	"github.com/carterperez-dev/canteen-backend/internal/auth"
	"github.com/carterperez-dev/canteen-backend/internal/config"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/dashboard"
	"github.com/carterperez-dev/canteen-backend/internal/events"
	"github.com/carterperez-dev/canteen-backend/internal/health"
	"github.com/carterperez-dev/canteen-backend/internal/ledger"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/metrics"
	"github.com/carterperez-dev/canteen-backend/internal/middleware"
	"github.com/carterperez-dev/canteen-backend/internal/migrations"
	"github.com/carterperez-dev/canteen-backend/internal/order"
	"github.com/carterperez-dev/canteen-backend/internal/report"
	"github.com/carterperez-dev/canteen-backend/internal/server"
	"github.com/carterperez-dev/canteen-backend/internal/stock"
	"github.com/carterperez-dev/canteen-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateDown := flag.Bool("migrate-down", false, "roll back every migration and exit")
	flag.Parse()

	start := run
	if *migrateDown {
		start = rollback
	}

	if err := start(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func rollback(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(setupLogger(cfg.Log))

	return migrations.Down(cfg.Database.URL)
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		telemetry = &core.Telemetry{}
	}
	if telemetry.Enabled() {
		logger.Info("OpenTelemetry tracer initialized", "endpoint", cfg.Otel.Endpoint)
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return err
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if cfg.IsDevelopment() {
		generated, keyErr := auth.EnsureKeyPair(cfg.JWT)
		if keyErr != nil {
			return keyErr
		}
		if generated {
			logger.Warn("generated development signing key",
				"path", cfg.JWT.PrivateKeyPath,
			)
		}
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	publisher := events.NewPublisher(cfg.Events)
	logger.Info("domain events configured",
		"enabled", cfg.Events.Enabled,
		"topic", cfg.Events.Topic,
	)

	userSvc := user.NewService(user.NewRepository(db.DB))
	userHandler := user.NewHandler(userSvc)

	if err := userSvc.EnsureAdmin(
		ctx,
		cfg.Bootstrap.AdminUsername,
		cfg.Bootstrap.AdminPassword,
	); err != nil {
		return err
	}

	authSvc := auth.NewService(
		core.NewStore(db.DB, auth.NewRepository),
		jwtManager,
		userSvc,
		auth.NewRedisBlacklist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc)

	if purged, purgeErr := authSvc.PurgeExpiredTokens(ctx); purgeErr != nil {
		logger.Warn("failed to purge expired refresh tokens", "error", purgeErr)
	} else if purged > 0 {
		logger.Info("purged expired refresh tokens", "count", purged)
	}

	menuRepo := menu.NewRepository(db.DB)

	allergySvc := allergy.NewService(
		core.NewStore(db.DB, allergy.NewRepository),
		menuRepo,
		redis.Client,
		cfg.Canteen.SuggestionsCacheTTL,
	)
	menuSvc := menu.NewService(menuRepo, allergySvc, publisher)
	orderSvc := order.NewService(core.NewStore(db.DB, order.NewRepository), publisher)
	ledgerSvc := ledger.NewService(core.NewStore(db.DB, ledger.NewRepos), cfg.Canteen, publisher)
	stockSvc := stock.NewService(core.NewStore(db.DB, stock.NewRepository), cfg.Canteen, publisher)
	reportSvc := report.NewService(core.NewStore(db.DB, report.NewRepository), cfg.Canteen.Location())

	dashboardSvc := dashboard.NewService(dashboard.Deps{
		Menu:      menuSvc,
		Orders:    orderSvc,
		Accounts:  ledgerSvc,
		Allergies: allergySvc,
		Stock:     stockSvc,
	})

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if kp, ok := publisher.(*events.KafkaPublisher); ok {
		deps = append(deps, health.Dependency{Name: "events", Checker: kp, Optional: true})
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Service:    admin.NewService(reportSvc, userSvc, menuSvc, stockSvc),
		Probes:     deps,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware(cfg.Metrics.Path))
	}
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticate := middleware.Authenticator(authSvc)
	perRole := middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits)
	authenticator := func(next http.Handler) http.Handler {
		return authenticate(perRole(next))
	}
	adminOnly := middleware.RequireAdmin

	credentialLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(10, 5),
		KeyFunc: middleware.KeyByUserAndEndpoint,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)

		menu.NewHandler(menuSvc).RegisterRoutes(r, authenticator, adminOnly)
		ledger.NewHandler(ledgerSvc).RegisterRoutes(r, authenticator)
		order.NewHandler(orderSvc).RegisterRoutes(r, authenticator)
		stock.NewHandler(stockSvc).RegisterRoutes(r, authenticator, adminOnly)
		allergy.NewHandler(allergySvc).RegisterRoutes(r, authenticator)
		report.NewHandler(reportSvc).RegisterRoutes(r, authenticator, adminOnly)
		dashboard.NewHandler(dashboardSvc).RegisterRoutes(r, authenticator)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
