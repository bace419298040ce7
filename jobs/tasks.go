package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/durabrake/findash/internal/period"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes dashboard sections into the report cache.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskDashboardBump invalidates every cached report.
	TaskDashboardBump = "dashboard:bump"
)

// WarmupPayload selects the periods to warm. An empty list warms every
// available period.
type WarmupPayload struct {
	Periods []period.Key `json:"periods,omitempty"`
}

// BumpPayload records who requested a cache invalidation.
type BumpPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewWarmupTask constructs a warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewBumpTask constructs a cache bump task.
func NewBumpTask(payload BumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardBump, data), nil
}
