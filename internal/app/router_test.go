package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/durabrake/findash/internal/analytics"
	analytichttp "github.com/durabrake/findash/internal/analytics/http"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/auth"
	"github.com/durabrake/findash/internal/observability"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/internal/snapshot"
	"github.com/durabrake/findash/internal/snapshot/snapshottest"
	"github.com/durabrake/findash/internal/view"
	"github.com/durabrake/findash/jobs"
)

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type routerFixture struct {
	handler http.Handler
	cookie  string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	cfg := &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second}
	sessions := shared.NewSessionManager(client, "findash_session", time.Hour, false)
	csrf := shared.NewCSRFManager("router-test")
	authService := auth.NewService(auth.NewRepository(client, auth.Credentials{Username: "cfo", PasswordHash: string(hash)}))
	service := analytics.NewService(snapshot.NewLoader(snapshottest.FS()), nil, analytics.DefaultPolicy())

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		AuthHandler:      auth.NewHandler(logger, authService, templates, sessions, csrf),
		AnalyticsHandler: analytichttp.NewHandler(logger, service, templates, ui.DefaultCharts(), nil, period.Key{}),
		JobHandler:       jobs.NewHandler(nil, logger),
		Metrics:          observability.NewMetrics(),
	})
	return &routerFixture{handler: router}
}

func (f *routerFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if f.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "findash_session", Value: f.cookie})
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == "findash_session" {
			f.cookie = c.Value
		}
	}
	return rr
}

func (f *routerFixture) login(t *testing.T, password string) *httptest.ResponseRecorder {
	t.Helper()
	page := f.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, page.Code)
	match := csrfInput.FindStringSubmatch(page.Body.String())
	require.Len(t, match, 2)

	form := url.Values{"username": {"cfo"}, "password": {password}, "csrf_token": {match[1]}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req)
}

func TestRouterPublicEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "text/css; charset=utf-8", rr.Header().Get("Content-Type"))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "findash_http_in_flight_requests")
}

func TestRouterRedirectsAnonymousUsers(t *testing.T) {
	f := newRouterFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/dashboard?tab=nwc", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/dashboard?tab=nwc"), rr.Header().Get("Location"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/api/periods", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestRouterLoginFlow(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.login(t, "s3cret")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "$1,120,000")
	assert.Contains(t, rr.Body.String(), "Welcome back")

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0}`, rr.Body.String())
}

func TestRouterRejectsBadPasswordAndMissingCSRF(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.login(t, "wrong")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid username or password")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rr = f.do(t, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
