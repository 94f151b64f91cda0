package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrCodeUniqueViolation = "23505"

type txKey struct{}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres owns the connection pool and the transaction boundary shared by
// the link, user and QR code stores.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// WithinTx runs fn in a transaction. If ctx already carries one, fn joins it
// and the outermost call decides commit or rollback.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))

			panic(r)
		}

		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))

			return
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit transaction: %w", commitErr)
		}
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))

	return err
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.pool.Close()

	return nil
}

// Links returns the link store.
func (p *Postgres) Links() *PostgresLinks {
	return &PostgresLinks{db: p}
}

// Users returns the user store.
func (p *Postgres) Users() *PostgresUsers {
	return &PostgresUsers{db: p}
}

// QRCodes returns the QR code store.
func (p *Postgres) QRCodes() *PostgresQRCodes {
	return &PostgresQRCodes{db: p}
}

func (p *Postgres) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}

	return p.pool
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgErrCodeUniqueViolation && pgErr.ConstraintName == constraint
}
