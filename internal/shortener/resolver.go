package shortener

import (
	"context"
	"errors"
	"fmt"
)

const (
	DefaultCodeLength  = 8
	DefaultMaxAttempts = 5
)

// CodeResolver assigns a short code that is not yet taken in the repository.
type CodeResolver struct {
	links       Repository
	source      CandidateSource
	length      int
	maxAttempts int
}

// NewCodeResolver creates a resolver that tries up to maxAttempts
// generated candidates of the given length.
func NewCodeResolver(links Repository, source CandidateSource, length, maxAttempts int) *CodeResolver {
	return &CodeResolver{
		links:       links,
		source:      source,
		length:      length,
		maxAttempts: maxAttempts,
	}
}

// ResolveCustom accepts a caller supplied code if nobody holds it yet.
func (r *CodeResolver) ResolveCustom(ctx context.Context, code Code) (Code, error) {
	exists, err := r.links.ExistsByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("check short code: %w", err)
	}

	if exists {
		return "", ErrCodeAlreadyExists
	}

	return code, nil
}

// Generate checks candidates strictly in order and returns the first free one.
func (r *CodeResolver) Generate(ctx context.Context) (Code, error) {
	candidates, err := r.source.Candidates(r.length, r.maxAttempts)
	if err != nil {
		return "", err
	}

	for {
		code, err := candidates.Next()
		if err != nil {
			if errors.Is(err, ErrMaxRetriesExceeded) {
				return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
			}

			return "", err
		}

		exists, err := r.links.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}

		if !exists {
			return code, nil
		}
	}
}
