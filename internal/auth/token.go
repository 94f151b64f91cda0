package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	// BearerType is the token_type returned to clients.
	BearerType = "bearer"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer signing with key.
func NewTokenIssuer(key []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue creates a fresh access and refresh token for userID.
func (i *TokenIssuer) Issue(userID int64) (TokenPair, error) {
	access, err := i.sign(userID, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := i.sign(userID, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess returns the user id of a valid access token.
func (i *TokenIssuer) VerifyAccess(token string) (int64, error) {
	return i.verify(token, TokenTypeAccess)
}

// Refresh exchanges a valid refresh token for a new pair.
func (i *TokenIssuer) Refresh(refreshToken string) (TokenPair, error) {
	userID, err := i.verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return i.Issue(userID)
}

func (i *TokenIssuer) sign(userID int64, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}

	return signed, nil
}

func (i *TokenIssuer) verify(token, typ string) (int64, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}

		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != typ {
		return 0, fmt.Errorf("%w: expected %s token", ErrInvalidToken, typ)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return userID, nil
}
