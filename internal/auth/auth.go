// Package auth handles registration, login and per-request authentication.
//
// Passwords are hashed with bcrypt. A successful login issues an opaque
// random token that is stored server-side with an expiry and handed to the
// browser as an HttpOnly cookie. [Service.Middleware] resolves the cookie on
// every protected request and exposes the caller through [UserID].
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrWong99/podium/internal/store"
)

const (
	defaultTTL        = 7 * 24 * time.Hour
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrUnauthenticated is returned for a missing, unknown or expired token.
	ErrUnauthenticated = errors.New("auth: authentication required")

	// ErrInvalidEmail is returned by Register for a malformed address.
	ErrInvalidEmail = errors.New("auth: invalid email address")

	// ErrWeakPassword is returned by Register for a password outside the
	// accepted length.
	ErrWeakPassword = errors.New("auth: password must be between 8 and 72 characters")
)

// Option configures a [Service].
type Option func(*Service)

// WithTTL sets how long a login token stays valid. Default: 7 days.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements the account operations on top of a [store.Store].
type Service struct {
	store store.Store
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

// New creates a Service.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		ttl:   defaultTTL,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Register creates an account. It returns [store.ErrEmailTaken] for a
// duplicate address.
func (s *Service) Register(ctx context.Context, email, password string) (store.User, error) {
	email = store.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return store.User{}, ErrInvalidEmail
	}
	if n := len(password); n < minPasswordLength || n > maxPasswordLength {
		return store.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	u := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return store.User{}, fmt.Errorf("auth: register: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and issues a new token.
func (s *Service) Login(ctx context.Context, email, password string) (store.User, store.Token, error) {
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, store.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, store.Token{}, fmt.Errorf("auth: login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return store.User{}, store.Token{}, ErrInvalidCredentials
	}

	tok := store.Token{
		Value:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().UTC().Add(s.ttl).Truncate(time.Microsecond),
	}
	if err := s.store.CreateToken(ctx, tok); err != nil {
		return store.User{}, store.Token{}, fmt.Errorf("auth: login: %w", err)
	}
	return u, tok, nil
}

// Logout revokes token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}

// Authenticate resolves a token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (store.User, error) {
	if token == "" {
		return store.User{}, ErrUnauthenticated
	}
	u, err := s.store.UserForToken(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrUnauthenticated
	}
	if err != nil {
		return store.User{}, fmt.Errorf("auth: authenticate: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user with all of their sessions and tokens.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("auth: delete account: %w", err)
	}
	return nil
}
