package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabrake/findash/internal/analytics"
	jobmetrics "github.com/durabrake/findash/internal/jobs"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/snapshot/snapshottest"
)

type stubWarmer struct {
	mu      sync.Mutex
	periods []period.Key
	fail    map[string]error
	warmed  []string
}

func (s *stubWarmer) Periods(context.Context) ([]period.Key, error) {
	return s.periods, nil
}

func (s *stubWarmer) Warm(ctx context.Context, key period.Key) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected per-period deadline")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[key.String()]; err != nil {
		return err
	}
	s.warmed = append(s.warmed, key.String())
	return nil
}

func warmupTask(t *testing.T, payload WarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewWarmupTask(payload)
	require.NoError(t, err)
	return task
}

func TestWarmupWarmsEveryAvailablePeriod(t *testing.T) {
	reg := prometheus.NewRegistry()
	warmer := &stubWarmer{periods: []period.Key{period.MustParseKey("25.12"), period.MustParseKey("25.11")}}
	job := NewWarmupJob(warmer, nil, jobmetrics.NewMetrics(reg))

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{})))
	assert.Equal(t, []string{"25.12", "25.11"}, warmer.warmed)

	expected := `
# HELP findash_warmup_periods_total Reporting periods processed by cache warmup, by outcome.
# TYPE findash_warmup_periods_total counter
findash_warmup_periods_total{outcome="warmed"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "findash_warmup_periods_total"))
}

func TestWarmupContinuesPastFailedPeriod(t *testing.T) {
	reg := prometheus.NewRegistry()
	boom := errors.New("boom")
	warmer := &stubWarmer{fail: map[string]error{"25.11": boom}}
	job := NewWarmupJob(warmer, nil, jobmetrics.NewMetrics(reg))

	payload := WarmupPayload{Periods: []period.Key{
		period.MustParseKey("25.10"),
		period.MustParseKey("25.11"),
		period.MustParseKey("25.12"),
	}}
	err := job.Handle(context.Background(), warmupTask(t, payload))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"25.10", "25.12"}, warmer.warmed)

	expected := `
# HELP findash_warmup_periods_total Reporting periods processed by cache warmup, by outcome.
# TYPE findash_warmup_periods_total counter
findash_warmup_periods_total{outcome="failed"} 1
findash_warmup_periods_total{outcome="warmed"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "findash_warmup_periods_total"))
}

func TestWarmupRejectsMalformedPayload(t *testing.T) {
	job := NewWarmupJob(&stubWarmer{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var unset *WarmupJob
	assert.Error(t, unset.Handle(context.Background(), warmupTask(t, WarmupPayload{})))
}

func TestWarmupPayloadUsesPeriodKeys(t *testing.T) {
	task := warmupTask(t, WarmupPayload{Periods: []period.Key{period.MustParseKey("25.12")}})
	assert.Equal(t, TaskDashboardWarmup, task.Type())
	assert.JSONEq(t, `{"periods":["25.12"]}`, string(task.Payload()))

	var decoded WarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, "25.12", decoded.Periods[0].String())
}

func newCachedService(t *testing.T) (*analytics.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := analytics.NewCache(client, time.Minute)
	svc := analytics.NewService(snapshot.NewLoader(snapshottest.FS()), cache, analytics.DefaultPolicy())
	return svc, mr
}

func TestWarmupPopulatesReportCache(t *testing.T) {
	svc, mr := newCachedService(t)
	job := NewWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{})))

	keys := mr.Keys()
	assert.Contains(t, keys, "analytics:summary:25.12:1")
	assert.Contains(t, keys, "analytics:backlog:25.12:1")
	assert.NotContains(t, keys, "analytics:customers:25.10:1")
}

func TestBumpAdvancesCacheVersion(t *testing.T) {
	svc, mr := newCachedService(t)
	ctx := context.Background()
	_, err := svc.Cache().Version(ctx)
	require.NoError(t, err)

	task, err := NewBumpTask(BumpPayload{Reason: "snapshots regenerated"})
	require.NoError(t, err)
	job := NewBumpJob(svc.Cache(), nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(ctx, task))

	got, err := mr.Get("analytics:version")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

type failingBumper struct{}

func (failingBumper) Bump(context.Context) (int64, error) { return 0, errors.New("redis down") }

func TestBumpReportsCacheErrors(t *testing.T) {
	task, err := NewBumpTask(BumpPayload{})
	require.NoError(t, err)
	job := NewBumpJob(failingBumper{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	assert.EqualError(t, job.Handle(context.Background(), task), "redis down")
}
