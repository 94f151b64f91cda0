package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/serroba/shortlink-go/internal/user"
)

const userColumns = `id, email, first_name, coalesce(last_name, ''), password, created_at, updated_at`

// PostgresUsers is a PostgreSQL implementation of user.Repository.
type PostgresUsers struct {
	db *Postgres
}

func (s *PostgresUsers) Add(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, password, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id
	`

	err := s.db.querier(ctx).QueryRow(ctx, query,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.ErrEmailTaken
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (s *PostgresUsers) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = NULLIF($4, ''), password = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := s.db.querier(ctx).Exec(ctx, query,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.ErrEmailTaken
		}

		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func (s *PostgresUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresUsers) get(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User

	err := s.db.querier(ctx).QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

var _ user.Repository = (*PostgresUsers)(nil)
