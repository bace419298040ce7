// Package jobmetrics instruments background task runs.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the task collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	periods  *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on reg. A nil reg shares one set on the
// default registerer so repeated calls do not panic on duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
		return defaultMetrics
	}
	return register(reg)
}

func register(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_jobs_total",
			Help: "Task runs by task type and status.",
		}, []string{"job", "status"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_jobs_failures_total",
			Help: "Failed task runs by task type.",
		}, []string{"job"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "findash_job_duration_seconds",
			Help:    "Task run duration by task type.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 60},
		}, []string{"job"}),
		periods: f.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_warmup_periods_total",
			Help: "Reporting periods processed by cache warmup, by outcome.",
		}, []string{"outcome"}),
	}
}

// Tracker times one task run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run's outcome and duration, then returns err unchanged so
// handlers can write `return tracker.End(err)`.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := statusSuccess
	if err != nil {
		status = statusFailure
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddPeriods counts periods a warmup run handled, by outcome ("warmed" or
// "failed").
func (m *Metrics) AddPeriods(outcome string, n int) {
	if m != nil && n > 0 {
		m.periods.WithLabelValues(outcome).Add(float64(n))
	}
}
