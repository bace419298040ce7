package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/durabrake/findash/internal/shared"
)

type memoryRepo struct {
	creds   Credentials
	logins  map[string]Login
	deleted []string
}

func (m *memoryRepo) FindByUsername(_ context.Context, username string) (*Credentials, error) {
	if username != m.creds.Username {
		return nil, shared.ErrNotFound
	}
	creds := m.creds
	return &creds, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, login Login) error {
	m.logins[login.SessionID] = login
	return nil
}

func (m *memoryRepo) FindSession(_ context.Context, id string) (*Login, error) {
	login, ok := m.logins[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &login, nil
}

func (m *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.logins, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newMemoryService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryRepo{creds: Credentials{Username: "cfo", PasswordHash: string(hash)}, logins: map[string]Login{}}
	return NewService(repo), repo
}

func TestAuthenticateComparesForUnknownUser(t *testing.T) {
	svc, _ := newMemoryService(t)
	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := svc.Authenticate(context.Background(), "nobody", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	assert.Equal(t, dummyHash(), hashes[0])

	_, err = svc.Authenticate(context.Background(), "cfo", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	assert.Len(t, hashes, 2)

	user, err := svc.Authenticate(context.Background(), "cfo", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "cfo", user.Username)
	assert.Len(t, hashes, 3)
}

func TestEndSessionReturnsLogin(t *testing.T) {
	svc, repo := newMemoryService(t)
	signedIn := time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC)
	user := &User{Username: "cfo", SignedInAt: signedIn}
	require.NoError(t, svc.RegisterSession(context.Background(), "s1", user, signedIn.Add(time.Hour), "10.0.0.1", "test"))

	login, err := svc.EndSession(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, login)
	assert.Equal(t, "cfo", login.Username)
	assert.Equal(t, signedIn, login.CreatedAt)
	assert.Empty(t, repo.logins)

	login, err = svc.EndSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, login)
	assert.Equal(t, []string{"s1", "missing"}, repo.deleted)
}

type failingRepo struct {
	memoryRepo
}

func (failingRepo) FindSession(context.Context, string) (*Login, error) {
	return nil, errors.New("redis down")
}

func TestEndSessionSurfacesLookupErrors(t *testing.T) {
	repo := &failingRepo{memoryRepo: memoryRepo{logins: map[string]Login{}}}
	_, err := NewService(repo).EndSession(context.Background(), "s1")
	assert.ErrorContains(t, err, "redis down")
	assert.Empty(t, repo.deleted)
}
