package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[user.Username]; ok {
		return store.ErrConflict
	}
	user.ID = uuid.NewString()
	stored := *user
	m.byName[user.Username] = &stored
	return nil
}

func (m *memUsers) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byName[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byName {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

type brokenUsers struct{ *memUsers }

func (brokenUsers) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newMemUsers(), Options{
		Secret:         "test-secret",
		TokenDuration:  time.Hour,
		CookieDuration: 24 * time.Hour,
		URL:            "http://localhost:3000",
		AvatarDir:      t.TempDir(),
	})
}

func TestRegisterAndVerify(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	alice, err := s.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.NotEqual(t, "pw1", alice.PasswordHash)

	verified, err := s.Verify(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, verified.ID)

	_, err = s.Verify(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = s.Verify(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRegisterRejects(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "  ", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = s.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestService(t)
	alice, err := s.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	tok, err := s.IssueToken(alice)
	require.NoError(t, err)

	id, err := s.ResolveIdentity(tok)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.True(t, id.Authenticated())
}

func TestResolveIdentityRejectsGarbage(t *testing.T) {
	s := newTestService(t)

	id, err := s.ResolveIdentity("not-a-token")
	assert.Error(t, err)
	assert.False(t, id.Authenticated())
}

func TestResolveIdentityRejectsForeignSecret(t *testing.T) {
	issuerSvc := newTestService(t)
	alice, err := issuerSvc.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	tok, err := issuerSvc.IssueToken(alice)
	require.NoError(t, err)

	other := NewService(newMemUsers(), Options{
		Secret:        "another-secret",
		TokenDuration: time.Hour,
		AvatarDir:     t.TempDir(),
	})
	_, err = other.ResolveIdentity(tok)
	assert.Error(t, err)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), "alice", strings.Repeat("p", 73))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.users.GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBindUserIDUsesStoredRecord(t *testing.T) {
	s := newTestService(t)
	alice, err := s.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	for _, name := range []string{"alice", " alice", "alice\t"} {
		derived := &token.User{ID: "local_0123abcd", Name: name}
		claims := s.bindUserID(token.Claims{User: derived})

		require.NotNil(t, claims.User, name)
		assert.Equal(t, alice.ID, claims.User.ID, name)
		assert.Equal(t, "alice", claims.User.Name, name)
		assert.Equal(t, "local_0123abcd", derived.ID, "input user is not mutated")
	}
}

func TestBindUserIDFailsClosed(t *testing.T) {
	s := newTestService(t)

	claims := s.bindUserID(token.Claims{User: &token.User{ID: "local_0123abcd", Name: "ghost"}})
	assert.Nil(t, claims.User)

	broken := NewService(brokenUsers{newMemUsers()}, Options{
		Secret:        "test-secret",
		TokenDuration: time.Hour,
		AvatarDir:     t.TempDir(),
	})
	claims = broken.bindUserID(token.Claims{User: &token.User{ID: "local_0123abcd", Name: "alice"}})
	assert.Nil(t, claims.User)
}

func TestTokenForUnknownUserIsRejected(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueToken(&models.User{ID: "local_0123abcd", Username: "ghost"})
	require.NoError(t, err)

	id, err := s.ResolveIdentity(tok)
	assert.Error(t, err)
	assert.False(t, id.Authenticated())
}
