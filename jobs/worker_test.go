package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerScheduleValidatesCron(t *testing.T) {
	w := NewWorker(asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, WorkerOptions{})
	task, err := NewWarmupTask(WarmupPayload{})
	require.NoError(t, err)

	assert.NoError(t, w.Schedule("*/30 * * * *", task))
	assert.Error(t, w.Schedule("every now and then", task))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func serveHealth(t *testing.T, inspector QueueInspector) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(inspector, nil).MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestHealthReportsQueueInfo(t *testing.T) {
	rr := serveHealth(t, stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 2, Retry: 1, Failed: 3}})
	require.Equal(t, http.StatusOK, rr.Code)

	var got queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, queueHealth{Queue: QueueDefault, Pending: 2, Retry: 1, Failed: 3}, got)
}

func TestHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"queue":"default"`)
}

func TestHealthInspectorFailure(t *testing.T) {
	rr := serveHealth(t, stubInspector{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.NotContains(t, rr.Body.String(), "redis down")
}
