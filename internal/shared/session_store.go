package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionManager stores sessions in Redis keyed by a uuid carried in an
// HttpOnly cookie.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager constructs a SessionManager. secure sets the cookie's
// Secure flag.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// TTL is the lifetime of the record and cookie.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// CookieName is the session cookie's name.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// Load returns the request's session. Missing, malformed or expired cookies
// start a fresh session; only Redis failures are errors.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return newSession(), nil
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return newSession(), nil
	}

	raw, err := sm.client.Get(ctx, sessionKeyPrefix+cookie.Value).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return newSession(), nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt record is treated like an expired one.
		return newSession(), nil
	}
	return restoreSession(cookie.Value, rec), nil
}

// Commit writes sess back to Redis in one transaction and sets the cookie.
// Signed-in sessions get a sliding expiry on every request.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, _ *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}
	if sess.destroyed {
		if err := sm.client.Del(ctx, sessionKeyPrefix+sess.ID).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrSessionStore, err)
		}
		http.SetCookie(w, sm.cookie("", -1))
		return nil
	}

	signedIn := sess.user != ""
	_, err := sm.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if sess.previousID != "" {
			pipe.Del(ctx, sessionKeyPrefix+sess.previousID)
		}
		switch {
		case sess.dirty || sess.isNew:
			raw, err := json.Marshal(sess.record())
			if err != nil {
				return err
			}
			pipe.Set(ctx, sessionKeyPrefix+sess.ID, raw, sm.ttl)
		case signedIn:
			pipe.Expire(ctx, sessionKeyPrefix+sess.ID, sm.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	sess.previousID = ""
	sess.dirty = false

	if sess.isNew || signedIn {
		http.SetCookie(w, sm.cookie(sess.ID, int(sm.ttl.Seconds())))
		sess.isNew = false
	}
	return nil
}

// Renew moves sess to a fresh ID while keeping its values. The old record is
// dropped on the next Commit. Call it whenever the session's privilege changes.
func (sm *SessionManager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if sess.previousID == "" && !sess.isNew {
		sess.previousID = sess.ID
	}
	sess.ID = uuid.NewString()
	sess.isNew = true
	sess.dirty = true
}

// Destroy deletes the record and expires the cookie on Commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess != nil {
		sess.destroyed = true
	}
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
