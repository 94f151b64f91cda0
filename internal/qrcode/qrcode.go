package qrcode

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlink-go/internal/shortener"
)

const MaxTitleLength = 40

var (
	ErrNotFound      = errors.New("qr code not found")
	ErrAlreadyExists = errors.New("a qr code already exists for this link")
	ErrNotOwner      = errors.New("not the owner of this qr code")
	ErrInvalidInput  = errors.New("invalid qr code input")
	ErrNotDeleted    = errors.New("qr code was not deleted")
)

// QRCode is a QR code bound to exactly one short link.
type QRCode struct {
	ID            int64
	Title         string
	Image         string
	Customization map[string]any
	OwnerID       int64
	LinkID        int64
	LinkCode      shortener.Code
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository persists QR codes. Reads fill in LinkCode from the bound link.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*QRCode, error)
	// GetByLinkID returns ErrNotFound when the link has no QR code.
	GetByLinkID(ctx context.Context, linkID int64) (*QRCode, error)
	// Add returns ErrAlreadyExists when the link already has a QR code.
	Add(ctx context.Context, qr *QRCode) error
	Update(ctx context.Context, qr *QRCode) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64, page shortener.Page) ([]QRCode, int, error)
}
