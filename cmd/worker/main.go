// Command worker runs the dashboard's background tasks: scheduled cache
// warmups and cache version bumps.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/app"
	"github.com/durabrake/findash/internal/observability"
	"github.com/durabrake/findash/internal/platform/cache"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Info("test mode, worker not started")
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger, closer := app.NewLogger(cfg)
	defer closer.Close()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	policy, err := app.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	rdb, err := cache.New(ctx, redisOpts)
	if err != nil {
		return err
	}
	defer rdb.Close()

	metrics := observability.NewMetrics()
	if err := analytics.SetupCacheMetrics(metrics.Registerer()); err != nil {
		return err
	}

	reports := analytics.NewCache(rdb, cfg.CacheTTL)
	service := analytics.NewService(snapshot.NewLoader(os.DirFS(cfg.DataDir)), reports, policy)

	worker := jobs.NewWorker(redisOpts.AsynqOpt(), jobs.WorkerOptions{Logger: logger, Concurrency: cfg.WorkerConcurrency})
	worker.Handle(jobs.TaskDashboardWarmup, jobs.NewWarmupJob(service, logger, metrics.Jobs()).Handle)
	worker.Handle(jobs.TaskDashboardBump, jobs.NewBumpJob(reports, logger, metrics.Jobs()).Handle)

	warmup, err := jobs.NewWarmupTask(jobs.WarmupPayload{})
	if err != nil {
		return err
	}
	if err := worker.Schedule(cfg.WarmupCron, warmup, asynq.MaxRetry(3)); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	if cfg.WorkerMetricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.WorkerMetricsAddr, metrics, logger) })
	}
	return g.Wait()
}

// serveMetrics exposes /metrics until ctx ends.
func serveMetrics(ctx context.Context, addr string, metrics *observability.Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("worker metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
