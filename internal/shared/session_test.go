package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "findash_session", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("cfo")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "hi"})

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sess.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "cfo", loaded.User())
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "hi", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm, _ := newManager(t)
	for _, value := range []string{"not-a-uuid", "6f1c1a7e-3c55-4d0e-9a55-8d2b3f1e0c11"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: value})
		sess, err := sm.Load(context.Background(), req)
		require.NoError(t, err)
		assert.NotEqual(t, value, sess.ID)
		assert.Empty(t, sess.User())
	}
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	sm.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	assert.False(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestCSRFTokens(t *testing.T) {
	m := NewCSRFManager("secret")
	ctx := context.Background()
	sess := newSession()

	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)

	rotated, err := m.Rotate(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, token, rotated)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, token), ErrCSRFTokenMismatch)
	assert.NoError(t, m.VerifyToken(ctx, sess, rotated))
}

func TestCSRFTokenBoundToSessionID(t *testing.T) {
	m := NewCSRFManager("secret")
	ctx := context.Background()
	victim := newSession()
	token, err := m.EnsureToken(ctx, victim)
	require.NoError(t, err)

	attacker := newSession()
	attacker.Set(CSRFSessionKey, token)
	assert.ErrorIs(t, m.VerifyToken(ctx, attacker, token), ErrCSRFTokenMismatch)

	reissued, err := m.EnsureToken(ctx, attacker)
	require.NoError(t, err)
	assert.NotEqual(t, token, reissued)

	other := NewCSRFManager("other-secret")
	assert.ErrorIs(t, other.VerifyToken(ctx, victim, token), ErrCSRFTokenMismatch)
}

func TestSessionRenew(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))
	oldID := sess.ID

	sm.Renew(sess)
	sess.SetUser("cfo")
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))

	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+sess.ID))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sess.ID, cookies[0].Value)
	assert.Equal(t, "v", sess.Get("k"))
}

func TestSessionStoreFailure(t *testing.T) {
	sm, mr := newManager(t)
	mr.Close()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "6f1c1a7e-3c55-4d0e-9a55-8d2b3f1e0c11"})
	_, err := sm.Load(context.Background(), req)
	assert.ErrorIs(t, err, ErrSessionStore)
}

func TestSessionCorruptRecordStartsFresh(t *testing.T) {
	sm, mr := newManager(t)
	id := "6f1c1a7e-3c55-4d0e-9a55-8d2b3f1e0c11"
	require.NoError(t, mr.Set("session:"+id, "{not json"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, id, sess.ID)
}

func TestSessionSlidingExpiry(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()
	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("cfo")
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))

	mr.FastForward(50 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, loaded))

	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))
}
