package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CreateLink holds the input for creating a short link.
type CreateLink struct {
	FriendlyName string
	IsCustom     bool
	Code         string
	LongURL      string
}

// Service handles creation and owner-scoped reads of short links.
type Service struct {
	links    Repository
	tx       Transactor
	resolver *CodeResolver
}

// NewService creates a new link service.
func NewService(links Repository, tx Transactor, resolver *CodeResolver) *Service {
	return &Service{
		links:    links,
		tx:       tx,
		resolver: resolver,
	}
}

// Create validates the input, assigns a unique code and persists the link.
func (s *Service) Create(ctx context.Context, req CreateLink, ownerID int64) (*ShortLink, error) {
	name, err := NormalizeFriendlyName(req.FriendlyName)
	if err != nil {
		return nil, err
	}

	longURL, err := ValidateLongURL(req.LongURL)
	if err != nil {
		return nil, err
	}

	var custom Code
	if req.IsCustom {
		if custom, err = ValidateCustomCode(req.Code); err != nil {
			return nil, err
		}
	}

	var link *ShortLink

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var code Code
		if req.IsCustom {
			code, err = s.resolver.ResolveCustom(ctx, custom)
		} else {
			code, err = s.resolver.Generate(ctx)
		}

		if err != nil {
			return err
		}

		link = &ShortLink{
			Code:         code,
			LongURL:      longURL,
			FriendlyName: name,
			IsCustom:     req.IsCustom,
			OwnerID:      ownerID,
			CreatedAt:    time.Now().UTC(),
		}

		err = s.links.Add(ctx, link)
		if !req.IsCustom && errors.Is(err, ErrCodeAlreadyExists) {
			// the free candidate was inserted by someone else after the check
			return fmt.Errorf("%w: generated code %s was taken concurrently", ErrGenerationFailed, code)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

// Details returns a link if ownerID owns it.
func (s *Service) Details(ctx context.Context, code Code, ownerID int64) (*ShortLink, error) {
	return ownedLink(ctx, s.links, code, ownerID)
}

// List returns one page of the owner's links.
func (s *Service) List(ctx context.Context, ownerID int64, page Page) ([]ShortLink, Pagination, error) {
	page = page.Normalize()

	items, total, err := s.links.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list links: %w", err)
	}

	return items, NewPagination(page, total), nil
}

func ownedLink(ctx context.Context, links Repository, code Code, ownerID int64) (*ShortLink, error) {
	link, err := links.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	return link, nil
}
