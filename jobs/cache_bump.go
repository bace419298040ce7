package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/durabrake/findash/internal/jobs"
)

// Bumper invalidates cached reports and returns the new cache version.
type Bumper interface {
	Bump(ctx context.Context) (int64, error)
}

// BumpJob advances the report cache version.
type BumpJob struct {
	Cache   Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBumpJob wires dependencies for the bump handler.
func NewBumpJob(cache Bumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *BumpJob {
	return &BumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes cache bump tasks.
func (j *BumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("dashboard bump: handler not configured")
	}
	var payload BumpPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskDashboardBump)

	version, err := j.Cache.Bump(ctx)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskDashboardBump))
	if err != nil {
		logger.Error("bump cache version", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("bumped cache version", slog.Int64("version", version), slog.String("reason", payload.Reason))
	return tracker.End(nil)
}
