package qrcode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/shortlink-go/internal/shortener"
)

// Create describes a new QR code. Exactly one of LinkShortCode and
// LinkToCreate must be set.
type Create struct {
	LinkShortCode string
	LinkToCreate  *shortener.CreateLink
	Image         string
	Customization map[string]any
}

// Changes lists the mutable fields of a QR code. Nil fields are left as is.
type Changes struct {
	Title         *string
	Image         *string
	Customization map[string]any
}

// Links is the part of the link service QR codes depend on.
type Links interface {
	Create(ctx context.Context, req shortener.CreateLink, ownerID int64) (*shortener.ShortLink, error)
	Details(ctx context.Context, code shortener.Code, ownerID int64) (*shortener.ShortLink, error)
}

// Service manages QR codes.
type Service struct {
	qrcodes Repository
	links   Links
	tx      shortener.Transactor
}

// NewService creates a new QR code service.
func NewService(qrcodes Repository, links Links, tx shortener.Transactor) *Service {
	return &Service{
		qrcodes: qrcodes,
		links:   links,
		tx:      tx,
	}
}

// Create binds a new QR code to an existing or newly created link. Link
// creation and the QR code insert commit together or not at all.
func (s *Service) Create(ctx context.Context, req Create, ownerID int64) (*QRCode, error) {
	hasCode := strings.TrimSpace(req.LinkShortCode) != ""
	if hasCode == (req.LinkToCreate != nil) {
		return nil, fmt.Errorf("%w: provide either a link short code or a link to create", ErrInvalidInput)
	}

	image, err := validateImage(req.Image)
	if err != nil {
		return nil, err
	}

	var created *QRCode

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var (
			link *shortener.ShortLink
			err  error
		)

		if hasCode {
			link, err = s.links.Details(ctx, shortener.Code(strings.TrimSpace(req.LinkShortCode)), ownerID)
		} else {
			link, err = s.links.Create(ctx, *req.LinkToCreate, ownerID)
		}

		if err != nil {
			return err
		}

		_, err = s.qrcodes.GetByLinkID(ctx, link.ID)

		switch {
		case err == nil:
			return ErrAlreadyExists
		case !errors.Is(err, ErrNotFound):
			return err
		}

		title := link.FriendlyName
		if title == "" {
			title = string(link.Code)
		}

		now := time.Now().UTC()
		qr := &QRCode{
			Title:         title,
			Image:         image,
			Customization: customization(req.Customization),
			OwnerID:       ownerID,
			LinkID:        link.ID,
			LinkCode:      link.Code,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := s.qrcodes.Add(ctx, qr); err != nil {
			return err
		}

		created = qr

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Get returns the owner's QR code.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*QRCode, error) {
	return s.owned(ctx, id, ownerID)
}

// List returns one page of the owner's QR codes.
func (s *Service) List(ctx context.Context, ownerID int64, page shortener.Page) ([]QRCode, shortener.Pagination, error) {
	page = page.Normalize()

	items, total, err := s.qrcodes.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, shortener.Pagination{}, fmt.Errorf("list qr codes: %w", err)
	}

	return items, shortener.NewPagination(page, total), nil
}

// Update changes the title, image or customization of a QR code.
func (s *Service) Update(ctx context.Context, id int64, changes Changes, ownerID int64) (*QRCode, error) {
	if changes.Title == nil && changes.Image == nil && changes.Customization == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	var title, image string

	var err error
	if changes.Title != nil {
		title = strings.TrimSpace(*changes.Title)
		if title == "" || len(title) > MaxTitleLength {
			return nil, fmt.Errorf("%w: title must be between 1 and %d characters", ErrInvalidInput, MaxTitleLength)
		}
	}

	if changes.Image != nil {
		if image, err = validateImage(*changes.Image); err != nil {
			return nil, err
		}
	}

	var updated *QRCode

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		qr, err := s.owned(ctx, id, ownerID)
		if err != nil {
			return err
		}

		if changes.Title != nil {
			qr.Title = title
		}

		if changes.Image != nil {
			qr.Image = image
		}

		if changes.Customization != nil {
			qr.Customization = changes.Customization
		}

		qr.UpdatedAt = time.Now().UTC()

		if err := s.qrcodes.Update(ctx, qr); err != nil {
			return err
		}

		updated = qr

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the owner's QR code. The bound link is kept.
func (s *Service) Delete(ctx context.Context, id, ownerID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, id, ownerID); err != nil {
			return err
		}

		deleted, err := s.qrcodes.Delete(ctx, id)
		if err != nil {
			return err
		}

		if !deleted {
			return ErrNotDeleted
		}

		return nil
	})
}

func (s *Service) owned(ctx context.Context, id, ownerID int64) (*QRCode, error) {
	qr, err := s.qrcodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if qr.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	return qr, nil
}

func validateImage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	image, err := shortener.ValidateLongURL(raw)
	if err != nil {
		return "", fmt.Errorf("%w: image must be an http or https url", ErrInvalidInput)
	}

	return image, nil
}

func customization(c map[string]any) map[string]any {
	if c == nil {
		return map[string]any{}
	}

	return c
}
