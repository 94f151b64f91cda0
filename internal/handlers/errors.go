package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/shortener"
	"github.com/serroba/shortlink-go/internal/user"
	"go.uber.org/zap"
)

// LinkNotFoundError is the body of a failed public redirect.
type LinkNotFoundError struct {
	ShortCode string `json:"short_code"`
}

// NewLinkNotFoundError builds the 404 for code.
func NewLinkNotFoundError(code string) *LinkNotFoundError {
	return &LinkNotFoundError{ShortCode: fmt.Sprintf("Url with short code %s doesn't exist", code)}
}

func (e *LinkNotFoundError) Error() string {
	return e.ShortCode
}

func (e *LinkNotFoundError) GetStatus() int {
	return http.StatusNotFound
}

var (
	badRequest = []error{
		shortener.ErrCodeAlreadyExists,
		shortener.ErrInvalidCode,
		shortener.ErrReservedCode,
		shortener.ErrInvalidURL,
		shortener.ErrInvalidName,
		shortener.ErrNoChanges,
		qrcode.ErrAlreadyExists,
		qrcode.ErrInvalidInput,
		user.ErrEmailTaken,
		user.ErrInvalidCredentials,
		user.ErrInvalidInput,
		user.ErrWrongPassword,
	}
	forbidden = []error{shortener.ErrNotOwner, qrcode.ErrNotOwner}
	notFound  = []error{shortener.ErrNotFound, qrcode.ErrNotFound, user.ErrNotFound}
)

// toHTTPError translates domain errors into huma errors. Anything unknown
// is logged and reported as a bare 500.
func toHTTPError(err error, logger *zap.Logger) error {
	switch {
	case isAny(err, badRequest):
		return huma.Error400BadRequest(err.Error())
	case isAny(err, forbidden):
		return huma.Error403Forbidden(err.Error())
	case isAny(err, notFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		return huma.Error401Unauthorized(err.Error())
	case errors.Is(err, shortener.ErrGenerationFailed):
		logger.Error("short code generation failed", zap.Error(err))

		detail := &huma.ErrorDetail{Message: err.Error(), Location: "body.short_code"}

		var exhausted *shortener.MaxRetriesExceededError
		if errors.As(err, &exhausted) {
			detail.Value = exhausted.Attempts
		}

		return huma.Error500InternalServerError("unable to generate a unique short code", detail)
	}

	logger.Error("request failed", zap.Error(err))

	return huma.Error500InternalServerError("internal server error")
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
