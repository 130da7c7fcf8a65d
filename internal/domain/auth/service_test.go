package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prodev-shop/backend/internal/domain/user"
)

// --- Mock implementations ---

type mockUsers struct {
	byEmail map[string]*user.User
	nextID  int64
}

func newMockUsers() *mockUsers {
	return &mockUsers{byEmail: make(map[string]*user.User), nextID: 1}
}

func (m *mockUsers) Create(_ context.Context, u *user.User) error {
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *mockUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range m.byEmail {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUsers) Count(_ context.Context) (int64, error) {
	return int64(len(m.byEmail)), nil
}

// --- Tests ---

func newTestService(users user.Repository) *Service {
	return NewService(users, NewTokenIssuer([]byte("test-secret"), time.Hour))
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	first, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, first.Role)
	assert.NotEmpty(t, first.Token)

	second, err := svc.Register(context.Background(), "bob", "bob@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, second.Role)
}

func TestRegister_HashesPassword(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	stored := users.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice2", "alice@example.com", "s3cret")
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "other@example.com", "s3cret")
	require.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	sess, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	assert.NotEmpty(t, sess.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newMockUsers()
	svc := newTestService(users)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService(newMockUsers())

	_, err := svc.Login(context.Background(), "ghost@example.com", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
