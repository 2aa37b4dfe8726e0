// Package identity implements signup, login and profile lookup.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/tarushsinha/ATHOS/internal/auth"
	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/logging"
)

var (
	// ErrEmailInUse is returned by Signup when the email is already registered.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

const (
	minPasswordLength = 8
	maxNameLength     = 120
	minBirthYear      = 1900
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes  = 72
)

// User is an account. Email is stored lower-cased.
type User struct {
	ID           int64
	Email        string
	Name         string
	BirthYear    int
	BirthMonth   int
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts. Lookups return nil, nil when nothing matches.
type UserStore interface {
	// CreateUser assigns the id. A duplicate email is a domain.ConstraintUserEmail violation.
	CreateUser(ctx context.Context, user User) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
}

// TokenIssuer mints access tokens for a user id.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// SignupInput captures the signup payload.
type SignupInput struct {
	Email      string
	Name       string
	Password   string
	BirthYear  int
	BirthMonth int
}

// LoginInput captures the login payload.
type LoginInput struct {
	Email    string
	Password string
}

// Service coordinates account workflows.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(users UserStore, tokens TokenIssuer, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost, now: time.Now}
}

// Signup registers the account and returns an access token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	email, err := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	currentYear := s.now().UTC().Year()

	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLength {
		err = multierr.Append(err, validation("name must be between 1 and 120 characters"))
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		err = multierr.Append(err, validation("password must be at least 8 characters"))
	}
	if len(in.Password) > maxPasswordBytes {
		err = multierr.Append(err, validation("password must be at most 72 bytes"))
	}
	if in.BirthYear < minBirthYear || in.BirthYear > currentYear {
		err = multierr.Append(err, validation("birth_year must be between 1900 and the current year"))
	}
	if in.BirthMonth < 1 || in.BirthMonth > 12 {
		err = multierr.Append(err, validation("birth_month must be between 1 and 12"))
	}
	if err != nil {
		return "", err
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailInUse
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.CreateUser(ctx, User{
		Email:        email,
		Name:         name,
		BirthYear:    in.BirthYear,
		BirthMonth:   in.BirthMonth,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if domain.IsConstraintViolation(err, domain.ConstraintUserEmail) {
			return "", ErrEmailInUse
		}
		return "", err
	}

	logging.FromContext(ctx).WithFields(log.Fields{"event": "user_signed_up", "user_id": user.ID}).Info("domain_event")
	return s.tokens.Issue(user.ID)
}

// Login verifies the credentials and returns an access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	email, err := normalizeEmail(in.Email)
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		err = multierr.Append(err, validation("password must be at least 8 characters"))
	}
	if err != nil {
		return "", err
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, in.Password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", validation("email must be a valid address")
	}
	return email, nil
}

func validation(detail string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, detail)
}
