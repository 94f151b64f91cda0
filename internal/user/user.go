package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 128
	MaxEmailLength    = 256
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid user input")
	ErrWrongPassword      = errors.New("wrong old password")
)

// User is a registered account.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository persists user accounts.
type Repository interface {
	// Add returns ErrEmailTaken when the email is already registered.
	Add(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update overwrites the stored account with u's fields. Returns
	// ErrEmailTaken when the new email belongs to another account.
	Update(ctx context.Context, u *User) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Signup is the input for registering an account.
type Signup struct {
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// Profile holds the editable personal fields of an account.
type Profile struct {
	FirstName string
	LastName  string
}

// PasswordChange is the input for replacing a password.
type PasswordChange struct {
	Old        string
	New        string
	NewConfirm string
}

// Service implements account registration and login.
type Service struct {
	users  Repository
	hasher PasswordHasher
}

// NewService creates a new user service.
func NewService(users Repository, hasher PasswordHasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// Signup registers a new account.
func (s *Service) Signup(ctx context.Context, req Signup) (*User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	profile, err := normalizeProfile(Profile{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		return nil, err
	}

	if err := checkNewPassword(req.Password, req.PasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		Email:        email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Add(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate returns the user if the password matches. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Update replaces the account's first and last name.
func (s *Service) Update(ctx context.Context, id int64, req Profile) (*User, error) {
	profile, err := normalizeProfile(req)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.FirstName = profile.FirstName
	u.LastName = profile.LastName

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangeEmail moves the account to a new email. Keeping the current
// address is allowed; taking another account's address is not.
func (s *Service) ChangeEmail(ctx context.Context, id int64, email string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Email == email {
		return u, nil
	}

	other, err := s.users.GetByEmail(ctx, email)

	switch {
	case err == nil && other.ID != u.ID:
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	u.Email = email

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, id int64, req PasswordChange) error {
	if err := checkNewPassword(req.New, req.NewConfirm); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Old); err != nil {
		return ErrWrongPassword
	}

	if u.PasswordHash, err = s.hasher.Hash(req.New); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.save(ctx, u)
}

func (s *Service) save(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()

	return s.users.Update(ctx, u)
}

func normalizeProfile(p Profile) (Profile, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)

	if p.FirstName == "" || len(p.FirstName) > MaxNameLength || len(p.LastName) > MaxNameLength {
		return Profile{}, fmt.Errorf("%w: names must be at most %d characters and first name is required",
			ErrInvalidInput, MaxNameLength)
	}

	return p, nil
}

func checkNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > MaxEmailLength {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	return email, nil
}
