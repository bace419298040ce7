package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/export"
	analytichttp "github.com/durabrake/findash/internal/analytics/http"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/app"
	"github.com/durabrake/findash/internal/auth"
	"github.com/durabrake/findash/internal/observability"
	"github.com/durabrake/findash/internal/platform/cache"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/view"
	"github.com/durabrake/findash/jobs"
)

func newServeCommand(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.InTestMode() {
				rt.logger.Info("test mode detected, skipping server startup")
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, stop, rt.cfg, rt.logger)
		},
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	if cfg.DashboardPasswordHash == "" {
		return errors.New("DASHBOARD_PASSWORD_HASH must be set; generate one with findash hash-password")
	}
	defaultPeriod, err := cfg.DefaultPeriodKey()
	if err != nil {
		return err
	}
	policy, err := app.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	if err := analytics.SetupCacheMetrics(metrics.Registerer()); err != nil {
		return fmt.Errorf("register cache metrics: %w", err)
	}

	sessionManager := shared.NewSessionManager(redisClient, "findash_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	authRepo := auth.NewRepository(redisClient, auth.Credentials{
		Username:     cfg.DashboardUsername,
		PasswordHash: cfg.DashboardPasswordHash,
	})
	authHandler := auth.NewHandler(logger, auth.NewService(authRepo), templates, sessionManager, csrfManager)

	reportCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, analytics.BumpChannel); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}
	loader := snapshot.NewLoader(os.DirFS(cfg.DataDir))
	analyticsService := analytics.NewService(loader, reportCache, policy)

	var pdf analytichttp.PDFService
	if cfg.GotenbergURL != "" {
		pdf = &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
	}
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, templates, ui.DefaultCharts(), pdf, defaultPeriod)

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("data_dir", cfg.DataDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
