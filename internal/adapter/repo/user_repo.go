package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshotlab/internal/domain"
)

const pgUniqueViolation = "23505"

// UserRepositoryPG implements domain.UserRepository.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository backed by PostgreSQL.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Create inserts a new account. A duplicate email maps to domain.ErrConflict.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	query := `
INSERT INTO users (id, email, name, password_hash, picture)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at;
`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Picture,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID fetches a user by identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, "id", id)
}

// GetByEmail fetches a user by email.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, "email", email)
}

func (r *UserRepositoryPG) get(ctx context.Context, column, value string) (*domain.User, error) {
	query := `
SELECT id, email, name, password_hash, picture, created_at, updated_at
FROM users
WHERE ` + column + ` = $1;
`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Picture,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
