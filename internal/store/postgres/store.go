// Package postgres is the PostgreSQL [store.Store], built on a pgx
// connection pool.
//
// Usage:
//
//	s, err := postgres.New(ctx, "postgres://podium@localhost/podium")
//	if err != nil { … }
//	defer s.Close()
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/podium/internal/store"
)

// SQLSTATE codes mapped to store sentinels.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var _ store.Store = (*Store)(nil)

// Store implements [store.Store] on a single [pgxpool.Pool].
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, verifies the connection and runs [Migrate].
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping implements [store.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return store.Persistence("ping", err)
	}
	return nil
}

// CreateUser implements [store.Store].
func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	const q = `INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, q, u.ID, store.NormalizeEmail(u.Email), u.PasswordHash, u.CreatedAt)
	if err != nil {
		if sqlState(err) == uniqueViolation {
			return store.ErrEmailTaken
		}
		return store.Persistence("create user", err)
	}
	return nil
}

// UserByEmail implements [store.Store].
func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	const q = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return s.queryUser(ctx, "user by email", q, store.NormalizeEmail(email))
}

// UserByID implements [store.Store].
func (s *Store) UserByID(ctx context.Context, id string) (store.User, error) {
	const q = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return s.queryUser(ctx, "user by id", q, id)
}

func (s *Store) queryUser(ctx context.Context, op, q string, args ...any) (store.User, error) {
	var u store.User
	err := s.pool.QueryRow(ctx, q, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return store.User{}, notFoundOr(op, err)
	}
	return u, nil
}

// DeleteUser implements [store.Store]. Sessions and tokens go with the user
// through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return store.Persistence("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateToken implements [store.Store].
func (s *Store) CreateToken(ctx context.Context, t store.Token) error {
	const q = `INSERT INTO auth_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, q, t.Value, t.UserID, t.ExpiresAt); err != nil {
		if sqlState(err) == foreignKeyViolation {
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
		FROM   auth_tokens t
		JOIN   users u ON u.id = t.user_id
		WHERE  t.token = $1
		  AND  t.expires_at > $2`
	return s.queryUser(ctx, "user for token", q, token, now)
}

// DeleteToken implements [store.Store].
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token); err != nil {
		return store.Persistence("delete token", err)
	}
	return nil
}

// CreateSession implements [store.Store].
func (s *Store) CreateSession(ctx context.Context, sess store.SpeechSession) error {
	const q = `
		INSERT INTO speech_sessions
		    (id, user_id, title, transcript, duration, scores, feedback, metrics, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, q,
		sess.ID,
		sess.UserID,
		sess.Title,
		sess.Transcript,
		sess.Duration,
		[]byte(store.JSONOrEmpty(sess.Scores)),
		[]byte(store.JSONOrEmpty(sess.Feedback)),
		[]byte(store.JSONOrEmpty(sess.Metrics)),
		sess.Provider,
		sess.CreatedAt,
	)
	if err != nil {
		if sqlState(err) == foreignKeyViolation {
			return store.ErrNotFound
		}
		return store.Persistence("create session", err)
	}
	return nil
}

const sessionColumns = `id, user_id, title, transcript, duration, scores, feedback, metrics, provider, created_at`

// GetSession implements [store.Store].
func (s *Store) GetSession(ctx context.Context, id string) (store.SpeechSession, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM speech_sessions WHERE id = $1`, id)
	if err != nil {
		return store.SpeechSession{}, store.Persistence("get session", err)
	}
	sess, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		return store.SpeechSession{}, notFoundOr("get session", err)
	}
	return sess, nil
}

// ListSessions implements [store.Store].
func (s *Store) ListSessions(ctx context.Context, userID string) ([]store.SpeechSession, error) {
	const q = `SELECT ` + sessionColumns + `
		FROM   speech_sessions
		WHERE  user_id = $1
		ORDER  BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, store.Persistence("list sessions", err)
	}
	out, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, store.Persistence("list sessions", err)
	}
	if out == nil {
		out = []store.SpeechSession{}
	}
	return out, nil
}

func scanSession(row pgx.CollectableRow) (store.SpeechSession, error) {
	var (
		sess                      store.SpeechSession
		scores, feedback, metrics []byte
	)
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.Title,
		&sess.Transcript,
		&sess.Duration,
		&scores,
		&feedback,
		&metrics,
		&sess.Provider,
		&sess.CreatedAt,
	)
	sess.Scores, sess.Feedback, sess.Metrics = scores, feedback, metrics
	return sess, err
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return store.Persistence(op, err)
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
