package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/durabrake/findash/internal/auth"
	"github.com/durabrake/findash/internal/shared"
	"github.com/durabrake/findash/internal/view"
	_ "github.com/durabrake/findash/testing"
)

type fixture struct {
	handler  *auth.Handler
	repo     *auth.RedisRepository
	sessions *shared.SessionManager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	repo := auth.NewRepository(client, auth.Credentials{Username: "cfo", PasswordHash: string(hashed)})
	handler := auth.NewHandler(nil, auth.NewService(repo), templates, sessions, shared.NewCSRFManager("csrfsecret"))
	return fixture{handler: handler, repo: repo, sessions: sessions}
}

// primeSession renders the login page once so the session carries a CSRF token.
func (f fixture) primeSession(t *testing.T) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	sess, err := f.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	f.handler.ShowLoginForTest(res, req.WithContext(ctx))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "<form")
	require.NoError(t, f.sessions.Commit(ctx, res, req, sess))
	require.NotEmpty(t, sess.Get(shared.CSRFSessionKey))
	return sess
}

func (f fixture) post(t *testing.T, sess *shared.Session, form url.Values) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: sess.ID})
	loaded, err := f.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), loaded)
	res := httptest.NewRecorder()
	f.handler.HandleLoginForTest(res, req.WithContext(ctx))
	require.NoError(t, f.sessions.Commit(ctx, res, req, loaded))
	return res, loaded
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	sess := f.primeSession(t)

	res, loaded := f.post(t, sess, url.Values{
		"username":   {"cfo"},
		"password":   {"wrong"},
		"csrf_token": {sess.Get(shared.CSRFSessionKey)},
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid username or password")
	assert.Empty(t, loaded.User())
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)
	sess := f.primeSession(t)

	res, _ := f.post(t, sess, url.Values{"csrf_token": {sess.Get(shared.CSRFSessionKey)}})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Username is required")
	assert.Contains(t, res.Body.String(), "Password is required")
}

func TestLoginRejectsMissingCSRF(t *testing.T) {
	f := newFixture(t)
	sess := f.primeSession(t)

	res, _ := f.post(t, sess, url.Values{"username": {"cfo"}, "password": {"correct horse"}})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestLoginSuccessAndLogout(t *testing.T) {
	f := newFixture(t)
	sess := f.primeSession(t)
	token := sess.Get(shared.CSRFSessionKey)

	res, loaded := f.post(t, sess, url.Values{
		"username":   {"CFO"},
		"password":   {"correct horse"},
		"csrf_token": {token},
		"next":       {"/dashboard?tab=nwc"},
	})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard?tab=nwc", res.Header().Get("Location"))
	assert.Equal(t, "cfo", loaded.User())
	assert.NotEqual(t, sess.ID, loaded.ID)
	fresh := loaded.Get(shared.CSRFSessionKey)
	assert.NotEqual(t, token, fresh)

	login, err := f.repo.FindSession(context.Background(), loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, "cfo", login.Username)

	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(url.Values{"csrf_token": {fresh}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := shared.ContextWithSession(req.Context(), loaded)
	out := httptest.NewRecorder()
	f.handler.HandleLogoutForTest(out, req.WithContext(ctx))
	require.NoError(t, f.sessions.Commit(ctx, out, req, loaded))
	assert.Equal(t, http.StatusSeeOther, out.Code)
	assert.Equal(t, "/login", out.Header().Get("Location"))

	_, err = f.repo.FindSession(context.Background(), loaded.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLoginIgnoresForeignRedirect(t *testing.T) {
	f := newFixture(t)
	sess := f.primeSession(t)

	res, _ := f.post(t, sess, url.Values{
		"username":   {"cfo"},
		"password":   {"correct horse"},
		"csrf_token": {sess.Get(shared.CSRFSessionKey)},
		"next":       {"//evil.example/steal"},
	})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard", res.Header().Get("Location"))
}

func TestRequireUser(t *testing.T) {
	protected := auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	anon := httptest.NewRecorder()
	protected.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/dashboard?tab=nwc", nil))
	assert.Equal(t, http.StatusSeeOther, anon.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%3Ftab%3Dnwc", anon.Header().Get("Location"))

	sess := &shared.Session{}
	sess.SetUser("cfo")
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	authed := httptest.NewRecorder()
	protected.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusNoContent, authed.Code)
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}
