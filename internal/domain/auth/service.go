package auth

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/prodev-shop/backend/internal/domain/user"
)

// ErrInvalidCredentials is returned when login fails. It deliberately does
// not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Session is the result of a successful register or login.
type Session struct {
	UserID   int64
	Username string
	Email    string
	Role     string
	Token    string
}

// Service handles account registration and login.
type Service struct {
	users  user.Repository
	tokens *TokenIssuer
}

// NewService creates an auth Service.
func NewService(users user.Repository, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new account and returns a signed session. The very
// first account in the system is granted the admin role.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Session, error) {
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, errors.Wrap(err, "check email")
	} else if taken {
		return nil, user.ErrEmailTaken
	}
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return nil, errors.Wrap(err, "check username")
	} else if taken {
		return nil, user.ErrUsernameTaken
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count users")
	}
	role := user.RoleUser
	if count == 0 {
		role = user.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return s.session(u)
}

// Login verifies credentials and returns a signed session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *Service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}
	return &Session{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Token:    token,
	}, nil
}
