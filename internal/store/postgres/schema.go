package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlUsers = `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT         PRIMARY KEY,
    email          TEXT         NOT NULL UNIQUE,
    password_hash  TEXT         NOT NULL,
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

const ddlTokens = `
CREATE TABLE IF NOT EXISTS auth_tokens (
    token       TEXT         PRIMARY KEY,
    user_id     TEXT         NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    expires_at  TIMESTAMPTZ  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_auth_tokens_user_id
    ON auth_tokens (user_id);
`

const ddlSessions = `
CREATE TABLE IF NOT EXISTS speech_sessions (
    id          TEXT              PRIMARY KEY,
    user_id     TEXT              NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title       TEXT              NOT NULL DEFAULT '',
    transcript  TEXT              NOT NULL DEFAULT '',
    duration    DOUBLE PRECISION  NOT NULL DEFAULT 0,
    scores      JSONB             NOT NULL DEFAULT '{}',
    feedback    JSONB             NOT NULL DEFAULT '{}',
    metrics     JSONB             NOT NULL DEFAULT '{}',
    provider    TEXT              NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ       NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_speech_sessions_user_created
    ON speech_sessions (user_id, created_at DESC);
`

// Migrate creates all tables. It is idempotent and safe to call on every
// start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []string{ddlUsers, ddlTokens, ddlSessions} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
