package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/shortener"
)

const qrSelect = `
	SELECT q.id, q.title, q.image, q.customization, q.user_id, q.link_id, l.short_code, q.created_at, q.updated_at
	FROM qr_codes q
	JOIN shortened_urls l ON l.id = q.link_id
`

// PostgresQRCodes is a PostgreSQL implementation of qrcode.Repository.
type PostgresQRCodes struct {
	db *Postgres
}

func (s *PostgresQRCodes) GetByID(ctx context.Context, id int64) (*qrcode.QRCode, error) {
	return s.getOne(ctx, qrSelect+` WHERE q.id = $1`, id)
}

func (s *PostgresQRCodes) GetByLinkID(ctx context.Context, linkID int64) (*qrcode.QRCode, error) {
	return s.getOne(ctx, qrSelect+` WHERE q.link_id = $1`, linkID)
}

func (s *PostgresQRCodes) Add(ctx context.Context, qr *qrcode.QRCode) error {
	query := `
		INSERT INTO qr_codes (title, image, customization, user_id, link_id, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.db.querier(ctx).QueryRow(ctx, query,
		qr.Title, qr.Image, qr.Customization, qr.OwnerID, qr.LinkID, qr.CreatedAt, qr.UpdatedAt,
	).Scan(&qr.ID)
	if err != nil {
		if isUniqueViolation(err, "qr_codes_link_id_key") {
			return qrcode.ErrAlreadyExists
		}

		return fmt.Errorf("insert qr code: %w", err)
	}

	return nil
}

func (s *PostgresQRCodes) Update(ctx context.Context, qr *qrcode.QRCode) error {
	tag, err := s.db.querier(ctx).Exec(ctx, `
		UPDATE qr_codes
		SET title = $2, image = NULLIF($3, ''), customization = $4, updated_at = $5
		WHERE id = $1
	`, qr.ID, qr.Title, qr.Image, qr.Customization, qr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update qr code %d: %w", qr.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (s *PostgresQRCodes) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.querier(ctx).Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete qr code %d: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *PostgresQRCodes) ListByOwner(
	ctx context.Context, ownerID int64, page shortener.Page,
) ([]qrcode.QRCode, int, error) {
	q := s.db.querier(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM qr_codes WHERE user_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count qr codes: %w", err)
	}

	rows, err := q.Query(ctx, qrSelect+`
		WHERE q.user_id = $1
		ORDER BY q.created_at DESC, q.id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list qr codes: %w", err)
	}
	defer rows.Close()

	items := make([]qrcode.QRCode, 0, page.Size)

	for rows.Next() {
		qr, err := scanQRCode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan qr code: %w", err)
		}

		items = append(items, *qr)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list qr codes: %w", err)
	}

	return items, total, nil
}

func (s *PostgresQRCodes) getOne(ctx context.Context, query string, arg any) (*qrcode.QRCode, error) {
	qr, err := scanQRCode(s.db.querier(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qrcode.ErrNotFound
		}

		return nil, fmt.Errorf("get qr code: %w", err)
	}

	return qr, nil
}

func scanQRCode(row pgx.Row) (*qrcode.QRCode, error) {
	var (
		qr    qrcode.QRCode
		image *string
		code  string
	)

	err := row.Scan(
		&qr.ID,
		&qr.Title,
		&image,
		&qr.Customization,
		&qr.OwnerID,
		&qr.LinkID,
		&code,
		&qr.CreatedAt,
		&qr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if image != nil {
		qr.Image = *image
	}

	qr.LinkCode = shortener.Code(code)

	return &qr, nil
}

var _ qrcode.Repository = (*PostgresQRCodes)(nil)
