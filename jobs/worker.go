package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultConcurrency = 4

// WorkerOptions tunes the task server.
type WorkerOptions struct {
	Logger      *slog.Logger
	Concurrency int
}

// Worker runs registered task handlers and cron entries against one Redis.
type Worker struct {
	redis     asynq.RedisConnOpt
	logger    *slog.Logger
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// NewWorker prepares a worker. Nothing connects to Redis until Run.
func NewWorker(redis asynq.RedisConnOpt, opts WorkerOptions) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	w := &Worker{redis: redis, logger: logger, mux: asynq.NewServeMux()}
	w.server = asynq.NewServer(redis, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{QueueDefault: 1},
		ShutdownTimeout: 15 * time.Second,
		Logger:          newAsynqLogger(logger),
		ErrorHandler:    asynq.ErrorHandlerFunc(w.logFailure),
	})
	return w
}

// Handle routes tasks of taskType to h.
func (w *Worker) Handle(taskType string, h asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, h)
}

// Schedule enqueues task on the cron spec (UTC). An invalid spec is an error.
func (w *Worker) Schedule(spec string, task *asynq.Task, opts ...asynq.Option) error {
	if w.scheduler == nil {
		w.scheduler = asynq.NewScheduler(w.redis, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   newAsynqLogger(w.logger),
		})
	}
	id, err := w.scheduler.Register(spec, task, opts...)
	if err != nil {
		return fmt.Errorf("jobs: schedule %s on %q: %w", task.Type(), spec, err)
	}
	w.logger.Info("task scheduled", slog.String("type", task.Type()), slog.String("cron", spec), slog.String("entry", id))
	return nil
}

// Run processes tasks until ctx is cancelled, then drains in-flight work.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return errors.New("jobs: worker not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("jobs: start server: %w", err)
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return fmt.Errorf("jobs: start scheduler: %w", err)
		}
	}
	w.logger.Info("worker started")

	<-ctx.Done()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return ctx.Err()
}

func (w *Worker) logFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	w.logger.Error("task failed",
		slog.String("type", task.Type()),
		slog.Int("retry", retried),
		slog.Int("max_retry", maxRetry),
		slog.Any("error", err),
	)
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct{ l *slog.Logger }

func newAsynqLogger(l *slog.Logger) asynqLogger {
	return asynqLogger{l: l.With(slog.String("component", "asynq"))}
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
