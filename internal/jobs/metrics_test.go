package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("dashboard:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("dashboard:warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("dashboard:warmup", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("dashboard:warmup", statusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("dashboard:warmup")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestAddPeriods(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPeriods("warmed", 3)
	m.AddPeriods("failed", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.periods.WithLabelValues("warmed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.periods))
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.AddPeriods("warmed", 1)
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
}

func TestNilRegistererSharesDefault(t *testing.T) {
	assert.Same(t, NewMetrics(nil), NewMetrics(nil))
}
