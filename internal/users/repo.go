package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"community-portal/internal/auth"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, password_hash, role, created_at`,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE email = $1`, email))
}

func (r *Repo) FindByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE id = $1`, id))
}

// RoleByID satisfies auth.RoleSource.
func (r *Repo) RoleByID(ctx context.Context, id int64) (auth.Role, error) {
	var role auth.Role
	err := r.DB.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// UpdateProfile rewrites username and email; the password hash is replaced
// only when newHash is non-empty.
func (r *Repo) UpdateProfile(ctx context.Context, id int64, username, email, newHash string) error {
	var (
		ct  pgconn.CommandTag
		err error
	)
	if newHash != "" {
		ct, err = r.DB.Exec(ctx, `
			UPDATE users SET username = $1, email = $2, password_hash = $3 WHERE id = $4`,
			username, email, newHash, id)
	} else {
		ct, err = r.DB.Exec(ctx, `
			UPDATE users SET username = $1, email = $2 WHERE id = $3`,
			username, email, id)
	}
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) scanOne(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
