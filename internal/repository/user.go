package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/prodev-shop/backend/internal/domain/user"
)

const (
	userColumns = `id, username, email, password_hash, role, created_at`

	createUserSQL = `INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	existsByEmailSQL    = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	existsByUsernameSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	countUsersSQL       = `SELECT COUNT(*) FROM users`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository returns a UserRepository over the given querier.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts an account, filling in its ID and creation time.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.q.QueryRow(ctx, createUserSQL,
		u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

// GetByID returns an account by its identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns an account by its unique email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// ExistsByEmail reports whether any account uses the email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, existsByEmailSQL, email)
}

// ExistsByUsername reports whether any account uses the username.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, existsByUsernameSQL, username)
}

// Count returns the number of registered accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, countUsersSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.q.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func (r *UserRepository) exists(ctx context.Context, sql string, arg any) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, sql, arg).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "check user existence")
	}
	return ok, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}
