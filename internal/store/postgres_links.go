package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/serroba/shortlink-go/internal/shortener"
)

const linkColumns = `id, short_code, original_url, friendly_name, is_short_code_custom, user_id, created_at`

// PostgresLinks is a PostgreSQL implementation of shortener.Repository.
type PostgresLinks struct {
	db *Postgres
}

func (s *PostgresLinks) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_urls WHERE short_code = $1`

	link, err := scanLink(s.db.querier(ctx).QueryRow(ctx, query, string(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("get link %s: %w", code, err)
	}

	return link, nil
}

func (s *PostgresLinks) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := s.db.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shortened_urls WHERE short_code = $1)`, string(code),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check link %s: %w", code, err)
	}

	return exists, nil
}

func (s *PostgresLinks) Add(ctx context.Context, link *shortener.ShortLink) error {
	query := `
		INSERT INTO shortened_urls (short_code, original_url, friendly_name, is_short_code_custom, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := s.db.querier(ctx).QueryRow(ctx, query,
		string(link.Code),
		link.LongURL,
		link.FriendlyName,
		link.IsCustom,
		link.OwnerID,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "shortened_urls_short_code_key") {
			return shortener.ErrCodeAlreadyExists
		}

		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (s *PostgresLinks) Update(ctx context.Context, link *shortener.ShortLink) error {
	tag, err := s.db.querier(ctx).Exec(ctx,
		`UPDATE shortened_urls SET original_url = $2, friendly_name = $3 WHERE short_code = $1`,
		string(link.Code), link.LongURL, link.FriendlyName,
	)
	if err != nil {
		return fmt.Errorf("update link %s: %w", link.Code, err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (s *PostgresLinks) Delete(ctx context.Context, code shortener.Code) (bool, error) {
	tag, err := s.db.querier(ctx).Exec(ctx, `DELETE FROM shortened_urls WHERE short_code = $1`, string(code))
	if err != nil {
		return false, fmt.Errorf("delete link %s: %w", code, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *PostgresLinks) ListByOwner(
	ctx context.Context, ownerID int64, page shortener.Page,
) ([]shortener.ShortLink, int, error) {
	q := s.db.querier(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM shortened_urls WHERE user_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count links: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT `+linkColumns+`
		FROM shortened_urls
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := make([]shortener.ShortLink, 0, page.Size)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan link: %w", err)
		}

		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}

	return links, total, nil
}

func scanLink(row pgx.Row) (*shortener.ShortLink, error) {
	var (
		link shortener.ShortLink
		code string
	)

	err := row.Scan(
		&link.ID,
		&code,
		&link.LongURL,
		&link.FriendlyName,
		&link.IsCustom,
		&link.OwnerID,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	link.Code = shortener.Code(code)

	return &link, nil
}

var _ shortener.Repository = (*PostgresLinks)(nil)
