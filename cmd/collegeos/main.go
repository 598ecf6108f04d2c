package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/college-os/college-os/internal/app"
	"github.com/college-os/college-os/internal/audit"
	audithttp "github.com/college-os/college-os/internal/audit/http"
	"github.com/college-os/college-os/internal/auth"
	"github.com/college-os/college-os/internal/navigation"
	"github.com/college-os/college-os/internal/observability"
	"github.com/college-os/college-os/internal/platform/cache"
	"github.com/college-os/college-os/internal/platform/db"
	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/roles"
	"github.com/college-os/college-os/internal/shared"
	"github.com/college-os/college-os/internal/users"
	"github.com/college-os/college-os/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	checks := make(map[string]app.Pinger)

	var dbpool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		dbpool, err = db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		checks["postgres"] = dbpool
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	checks["redis"] = app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	var auditRecorder shared.AuditRecorder = shared.NewSlogAuditRecorder(logger)
	var sessionStore auth.SessionStore
	if dbpool != nil {
		auditRecorder = shared.NewAuditLogger(dbpool)
		sessionStore = auth.NewSessionStore(dbpool)
	}

	roleRepo, err := app.RoleRepository(cfg, dbpool)
	if err != nil {
		logger.Error("select role catalog", slog.Any("error", err))
		os.Exit(1)
	}
	catalogStore := rbac.NewCatalogStore(nil)
	rolesService := roles.NewService(roleRepo, catalogStore, auditRecorder, metrics, logger)
	if _, err := rolesService.Reload(ctx); err != nil {
		logger.Error("load role catalog", slog.String("source", cfg.CatalogSource), slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.CatalogSource == app.SourcePostgres {
		go rolesService.Watch(ctx, cfg.CatalogRefresh)
	}

	directory, err := app.Directory(cfg, dbpool)
	if err != nil {
		logger.Error("select user directory", slog.Any("error", err))
		os.Exit(1)
	}
	matcher, err := auth.SecretMatcherFor(cfg.SecretScheme)
	if err != nil {
		logger.Error("secret scheme", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(directory, catalogStore, auth.Options{
		Sessions: sessionStore,
		Audit:    auditRecorder,
		Logger:   logger,
		Matcher:  matcher,
		Recorder: metrics,
	})
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, cfg.LoginRateLimit)

	rbacMiddleware := rbac.Middleware{Logger: logger, Recorder: metrics}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	var auditHandler *audithttp.Handler
	if dbpool != nil {
		auditHandler = audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware)
	}

	var enqueuer jobs.Enqueuer
	if sessionStore != nil {
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		enqueuer = jobClient
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(logger),
		NavigationHandler:  navigation.NewHandler(logger),
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, users.NewService(directory), rbacMiddleware),
		JobsHandler:        jobs.NewHandler(inspector, enqueuer, logger, rbacMiddleware),
		AuditHandler:       auditHandler,
		Metrics:            metrics,
		Checks:             checks,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
