// Package sqlite is a single-file [store.Store] on the pure-Go
// modernc.org/sqlite driver. It needs no cgo and no external server, which
// makes it the default for local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/MrWong99/podium/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_tokens (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  expires_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS speech_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  transcript TEXT NOT NULL,
  duration REAL NOT NULL,
  scores TEXT NOT NULL,
  feedback TEXT NOT NULL,
  metrics TEXT NOT NULL,
  provider TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_speech_sessions_user ON speech_sessions (user_id, created_at);
`

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ store.Store = (*Store)(nil)

// Store implements [store.Store] on one SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite store: create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY storms.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping implements [store.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.Persistence("ping", err)
	}
	return nil
}

// CreateUser implements [store.Store].
func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, store.NormalizeEmail(u.Email), u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if constraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") {
			return store.ErrEmailTaken
		}
		return store.Persistence("create user", err)
	}
	return nil
}

// UserByEmail implements [store.Store].
func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	return s.queryUser(ctx, "user by email",
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, store.NormalizeEmail(email))
}

// UserByID implements [store.Store].
func (s *Store) UserByID(ctx context.Context, id string) (store.User, error) {
	return s.queryUser(ctx, "user by id",
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) queryUser(ctx context.Context, op, q string, args ...any) (store.User, error) {
	var (
		u       store.User
		created string
	)
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		return store.User{}, notFoundOr(op, err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return store.User{}, store.Persistence(op, err)
	}
	return u, nil
}

// DeleteUser implements [store.Store].
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return store.Persistence("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Persistence("delete user", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateToken implements [store.Store].
func (s *Store) CreateToken(ctx context.Context, t store.Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`,
		t.Value, t.UserID, formatTime(t.ExpiresAt))
	if err != nil {
		if constraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY") {
			return store.ErrNotFound
		}
		return store.Persistence("create token", err)
	}
	return nil
}

// UserForToken implements [store.Store].
func (s *Store) UserForToken(ctx context.Context, token string, now time.Time) (store.User, error) {
	const q = `
SELECT u.id, u.email, u.password_hash, u.created_at
FROM auth_tokens t JOIN users u ON u.id = t.user_id
WHERE t.token = ? AND t.expires_at > ?`
	return s.queryUser(ctx, "user for token", q, token, formatTime(now))
}

// DeleteToken implements [store.Store].
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = ?`, token); err != nil {
		return store.Persistence("delete token", err)
	}
	return nil
}

// CreateSession implements [store.Store].
func (s *Store) CreateSession(ctx context.Context, sess store.SpeechSession) error {
	const stmt = `
INSERT INTO speech_sessions (id, user_id, title, transcript, duration, scores, feedback, metrics, provider, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt,
		sess.ID,
		sess.UserID,
		sess.Title,
		sess.Transcript,
		sess.Duration,
		string(store.JSONOrEmpty(sess.Scores)),
		string(store.JSONOrEmpty(sess.Feedback)),
		string(store.JSONOrEmpty(sess.Metrics)),
		sess.Provider,
		formatTime(sess.CreatedAt),
	)
	if err != nil {
		if constraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY") {
			return store.ErrNotFound
		}
		return store.Persistence("create session", err)
	}
	return nil
}

const sessionColumns = `id, user_id, title, transcript, duration, scores, feedback, metrics, provider, created_at`

// GetSession implements [store.Store].
func (s *Store) GetSession(ctx context.Context, id string) (store.SpeechSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM speech_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return store.SpeechSession{}, notFoundOr("get session", err)
	}
	return sess, nil
}

// ListSessions implements [store.Store].
func (s *Store) ListSessions(ctx context.Context, userID string) ([]store.SpeechSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM speech_sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, store.Persistence("list sessions", err)
	}
	defer rows.Close()

	out := []store.SpeechSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, store.Persistence("list sessions", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Persistence("list sessions", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (store.SpeechSession, error) {
	var (
		sess                               store.SpeechSession
		scores, feedback, metrics, created string
	)
	if err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Title,
		&sess.Transcript,
		&sess.Duration,
		&scores,
		&feedback,
		&metrics,
		&sess.Provider,
		&created,
	); err != nil {
		return store.SpeechSession{}, err
	}
	sess.Scores = []byte(scores)
	sess.Feedback = []byte(feedback)
	sess.Metrics = []byte(metrics)

	var err error
	sess.CreatedAt, err = parseTime(created)
	return sess, err
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

// constraint reports whether err is the given constraint failure. The
// message check covers connections without extended result codes.
func constraint(err error, code int, kind string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == code || strings.Contains(se.Error(), kind+" constraint failed")
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return store.Persistence(op, err)
}
