package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Roles assignable to users. The first registered account becomes an admin.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

var (
	// ErrNotFound is returned when a user lookup matches no row.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email is already taken")
	// ErrUsernameTaken is returned when registering with a username already in use.
	ErrUsernameTaken = errors.New("username is already taken")
)

// User is a registered account. PasswordHash is a bcrypt hash, never the
// plaintext password.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
