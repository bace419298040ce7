package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/durabrake/findash/internal/shared"
)

// dummyHash is compared against when the username is unknown so both
// rejection paths spend one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("findash:unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic("auth: generate dummy hash: " + err.Error())
	}
	return hash
})

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	now     func() time.Time
	compare func(hash, password []byte) error
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now, compare: bcrypt.CompareHashAndPassword}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	creds, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		_ = s.compare(dummyHash(), []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.compare([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return &User{Username: creds.Username, SignedInAt: s.now().UTC()}, nil
}

// RegisterSession records the login behind session id.
func (s *Service) RegisterSession(ctx context.Context, id string, user *User, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, Login{
		SessionID: id,
		Username:  user.Username,
		CreatedAt: user.SignedInAt,
		ExpiresAt: expiresAt.UTC(),
		IP:        ip,
		UserAgent: ua,
	})
}

// EndSession forgets the login behind session id and returns it. The login
// is nil when none was recorded.
func (s *Service) EndSession(ctx context.Context, id string) (*Login, error) {
	login, err := s.repo.FindSession(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return nil, err
	}
	return login, nil
}

// HashPassword returns a bcrypt hash suitable for DASHBOARD_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
