package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/durabrake/findash/internal/jobs"
	"github.com/durabrake/findash/internal/period"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DefaultPeriodTimeout bounds the derivation of one period during warmup.
const DefaultPeriodTimeout = 20 * time.Second

// Warmer derives and caches every section of a period.
type Warmer interface {
	Periods(ctx context.Context) ([]period.Key, error)
	Warm(ctx context.Context, key period.Key) error
}

// WarmupJob pre-populates the report cache for available periods.
type WarmupJob struct {
	Service       Warmer
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
	PeriodTimeout time.Duration
	clock         func() time.Time
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(service Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{
		Service:       service,
		Logger:        logger,
		Metrics:       metrics,
		PeriodTimeout: DefaultPeriodTimeout,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks. A period that fails to derive is
// logged and counted, and the remaining periods are still warmed.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()

	keys := payload.Periods
	if len(keys) == 0 {
		available, err := j.Service.Periods(ctx)
		if err != nil {
			logger.Error("list periods", slog.Any("error", err))
			return err
		}
		keys = available
	}
	if len(keys) == 0 {
		logger.Info("no periods discovered for warmup")
		return nil
	}

	var errs []error
	warmed := 0
	for _, key := range keys {
		if err := j.warmPeriod(ctx, key); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("warm period", slog.String("period", key.String()), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		warmed++
	}
	j.metrics().AddPeriods("warmed", warmed)
	j.metrics().AddPeriods("failed", len(errs))

	logger.Info("completed dashboard warmup",
		slog.Int("periods", warmed),
		slog.Int("failed", len(errs)),
		slog.Duration("duration", j.now().Sub(start)))
	return errors.Join(errs...)
}

func (j *WarmupJob) warmPeriod(ctx context.Context, key period.Key) error {
	timeout := j.PeriodTimeout
	if timeout <= 0 {
		timeout = DefaultPeriodTimeout
	}
	periodCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return j.Service.Warm(periodCtx, key)
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
