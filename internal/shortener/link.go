package shortener

import (
	"context"
	"errors"
	"time"
)

// Code represents a short URL code.
type Code string

// ShortLink is a shortened URL owned by a user.
type ShortLink struct {
	ID           int64
	Code         Code
	LongURL      string
	FriendlyName string
	IsCustom     bool
	OwnerID      int64
	CreatedAt    time.Time
}

var (
	ErrNotFound          = errors.New("short link not found")
	ErrCodeAlreadyExists = errors.New("short code already exists")
	ErrNotOwner          = errors.New("not the owner of this short link")
	ErrGenerationFailed  = errors.New("unable to generate short code")
	ErrNotDeleted        = errors.New("short link was not deleted")
	ErrInvalidCode       = errors.New("invalid short code")
	ErrReservedCode      = errors.New("short code is reserved")
	ErrInvalidURL        = errors.New("invalid long url")
	ErrInvalidName       = errors.New("invalid friendly name")
	ErrNoChanges         = errors.New("no changes to apply")
)

// Page selects a slice of an owner's items. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 15
)

// Offset returns the number of items to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Normalize fills in defaults for unset or invalid values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPageNumber
	}

	if p.Size < 1 {
		p.Size = DefaultPageSize
	}

	return p
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage int
	PageSize    int
	TotalPages  int
	TotalItems  int
}

// NewPagination computes pagination metadata. There is always at least one page.
func NewPagination(page Page, total int) Pagination {
	pages := (total + page.Size - 1) / page.Size
	if pages < 1 {
		pages = 1
	}

	return Pagination{
		CurrentPage: page.Number,
		PageSize:    page.Size,
		TotalPages:  pages,
		TotalItems:  total,
	}
}

// Repository is the authoritative store of short links.
type Repository interface {
	// GetByCode returns ErrNotFound when no link has the code.
	GetByCode(ctx context.Context, code Code) (*ShortLink, error)
	ExistsByCode(ctx context.Context, code Code) (bool, error)
	// Add persists a new link and fills in ID and CreatedAt.
	// Returns ErrCodeAlreadyExists if the code was taken concurrently.
	Add(ctx context.Context, link *ShortLink) error
	Update(ctx context.Context, link *ShortLink) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, code Code) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64, page Page) ([]ShortLink, int, error)
}

// Transactor runs fn inside a single transaction, committing once when fn
// returns nil and rolling back otherwise. Nested calls join the outer
// transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
