package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/durabrake/findash/internal/shared"
)

// Repository defines credential lookups and login bookkeeping.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Credentials, error)
	CreateSession(ctx context.Context, login Login) error
	FindSession(ctx context.Context, id string) (*Login, error)
	DeleteSession(ctx context.Context, id string) error
}

// RedisRepository serves the single configured account and records logins in
// Redis.
type RedisRepository struct {
	client *redis.Client
	creds  Credentials
}

// NewRepository constructs a repository for creds. A nil client disables
// login bookkeeping.
func NewRepository(client *redis.Client, creds Credentials) *RedisRepository {
	return &RedisRepository{client: client, creds: creds}
}

// FindByUsername matches username case-insensitively against the configured
// account.
func (r *RedisRepository) FindByUsername(ctx context.Context, username string) (*Credentials, error) {
	if r.creds.Username == "" || r.creds.PasswordHash == "" {
		return nil, shared.ErrNotFound
	}
	if !strings.EqualFold(strings.TrimSpace(username), r.creds.Username) {
		return nil, shared.ErrNotFound
	}
	creds := r.creds
	return &creds, nil
}

// CreateSession stores login metadata until the session expires.
func (r *RedisRepository) CreateSession(ctx context.Context, login Login) error {
	if r.client == nil {
		return nil
	}
	ttl := time.Until(login.ExpiresAt)
	if ttl <= 0 {
		return errors.New("auth: login already expired")
	}
	payload, err := json.Marshal(login)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, loginKey(login.SessionID), payload, ttl).Err()
}

// DeleteSession removes login metadata.
func (r *RedisRepository) DeleteSession(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, loginKey(id)).Err()
}

// FindSession returns the login stored for id.
func (r *RedisRepository) FindSession(ctx context.Context, id string) (*Login, error) {
	if r.client == nil {
		return nil, shared.ErrNotFound
	}
	payload, err := r.client.Get(ctx, loginKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var login Login
	if err := json.Unmarshal(payload, &login); err != nil {
		return nil, err
	}
	return &login, nil
}

func loginKey(id string) string {
	return "auth:login:" + id
}

var _ Repository = (*RedisRepository)(nil)
