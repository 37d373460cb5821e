// Package store defines persistence for users, login tokens and speech
// sessions.
//
// Three implementations share one contract, verified by the storetest
// conformance suite:
//
//   - postgres: PostgreSQL via pgx, for production
//   - sqlite: a single file via the pure-Go modernc driver
//   - memstore: process memory, for development and tests
//
// Speech sessions are immutable once created. They are removed only when the
// owning user is deleted, which cascades to their sessions and tokens.
//
// Every failure other than [ErrNotFound] and [ErrEmailTaken] wraps
// [ErrPersistence].
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a user, token or session does not exist.
	// Expired tokens are reported as not found.
	ErrNotFound = errors.New("store: not found")

	// ErrEmailTaken is returned by CreateUser for a duplicate email.
	ErrEmailTaken = errors.New("store: email already registered")

	// ErrPersistence wraps every backend failure.
	ErrPersistence = errors.New("store: persistence failure")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Token is an opaque login token.
type Token struct {
	Value     string
	UserID    string
	ExpiresAt time.Time
}

// SpeechSession is one saved practice run. Scores, Feedback and Metrics
// are stored as the client sent them.
type SpeechSession struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Title      string          `json:"title"`
	Transcript string          `json:"transcript"`
	Duration   float64         `json:"duration"`
	Scores     json.RawMessage `json:"scores"`
	Feedback   json.RawMessage `json:"feedback"`
	Metrics    json.RawMessage `json:"metrics"`
	Provider   string          `json:"provider,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Store is the persistence contract. Implementations are safe for
// concurrent use.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	// DeleteUser removes the user together with their sessions and tokens.
	DeleteUser(ctx context.Context, id string) error

	CreateToken(ctx context.Context, t Token) error
	// UserForToken resolves a token that has not expired at now.
	UserForToken(ctx context.Context, token string, now time.Time) (User, error)
	DeleteToken(ctx context.Context, token string) error

	CreateSession(ctx context.Context, s SpeechSession) error
	GetSession(ctx context.Context, id string) (SpeechSession, error)
	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]SpeechSession, error)

	Ping(ctx context.Context) error
	Close() error
}

// Persistence wraps a backend error in [ErrPersistence].
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// NormalizeEmail lowercases and trims an address. Every implementation
// stores and looks up normalized addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// JSONOrEmpty returns raw, or an empty object for a missing payload.
func JSONOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`{}`)
	}
	return raw
}
