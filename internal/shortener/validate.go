package shortener

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	MinCustomCodeLength = 8
	MaxCustomCodeLength = 20
	MaxFriendlyName     = 40
	MaxLongURLLength    = 2083
)

var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

var reservedWords = map[string]struct{}{
	"app": {}, "api": {}, "admin": {}, "dashboard": {}, "login": {}, "signup": {}, "settings": {},
	"help": {}, "about": {}, "terms": {}, "privacy": {}, "contact": {}, "shorten": {},
	"get": {}, "post": {}, "put": {}, "delete": {}, "patch": {}, "head": {}, "options": {},
	"import": {}, "class": {}, "def": {}, "return": {}, "function": {}, "var": {},
	"let": {}, "const": {}, "select": {}, "insert": {}, "update": {},
	"from": {}, "where": {}, "and": {}, "or": {}, "not": {}, "null": {}, "true": {}, "false": {},
}

// ValidateCustomCode checks a user chosen code and returns it trimmed.
func ValidateCustomCode(raw string) (Code, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", fmt.Errorf("%w: enter a short code", ErrInvalidCode)
	}

	if len(code) < MinCustomCodeLength || len(code) > MaxCustomCodeLength {
		return "", fmt.Errorf("%w: must be between %d and %d characters",
			ErrInvalidCode, MinCustomCodeLength, MaxCustomCodeLength)
	}

	if _, ok := reservedWords[strings.ToLower(code)]; ok {
		return "", fmt.Errorf("%w: the short code '%s' cannot be used", ErrReservedCode, code)
	}

	if !customCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: the short code '%s' contains invalid characters, "+
			"only letters, digits, and '-' are allowed", ErrInvalidCode, code)
	}

	return Code(code), nil
}

// ValidateLongURL requires an absolute http or https URL.
func ValidateLongURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxLongURLLength {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", ErrInvalidURL
	}

	return raw, nil
}

// NormalizeFriendlyName trims the display name and enforces its length.
func NormalizeFriendlyName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) > MaxFriendlyName {
		return "", fmt.Errorf("%w: must be at most %d characters", ErrInvalidName, MaxFriendlyName)
	}

	return name, nil
}
