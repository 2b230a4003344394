//go:build integration

// Package containers starts throwaway infrastructure for integration tests.
// Containers live for the whole test binary; Ryuk reaps them afterwards.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is the full database schema. It mirrors the per-store schema
// comments; any change here must land there too.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id             UUID PRIMARY KEY,
    email          TEXT NOT NULL,
    password_hash  TEXT NOT NULL,
    is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
    current_did_id UUID,
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS dids (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL,
    did         TEXT NOT NULL UNIQUE,
    public_key  TEXT NOT NULL,
    signing_key TEXT NOT NULL,
    method      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    metadata    JSONB
);

CREATE TABLE IF NOT EXISTS credentials (
    id           UUID PRIMARY KEY,
    did_id       UUID NOT NULL,
    type         TEXT NOT NULL,
    title        TEXT NOT NULL,
    issuer_name  TEXT NOT NULL,
    issuer_did   TEXT NOT NULL DEFAULT '',
    issued_at    TIMESTAMPTZ NOT NULL,
    expires_at   TIMESTAMPTZ,
    status       TEXT NOT NULL,
    subject      JSONB NOT NULL,
    proof        JSONB NOT NULL,
    content_id   TEXT NOT NULL DEFAULT '',
    image_url    TEXT NOT NULL DEFAULT '',
    document_url TEXT NOT NULL DEFAULT '',
    share_token  TEXT UNIQUE,
    metadata     JSONB
);

CREATE TABLE IF NOT EXISTS contents (
    id         TEXT PRIMARY KEY,
    byte_size  INTEGER NOT NULL,
    mime_type  TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS verifications (
    id            UUID PRIMARY KEY,
    credential_id UUID,
    verifier      TEXT NOT NULL,
    verified_at   TIMESTAMPTZ NOT NULL,
    is_valid      BOOLEAN NOT NULL,
    method        TEXT NOT NULL,
    policy        TEXT NOT NULL,
    device        TEXT NOT NULL DEFAULT '',
    checks        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL,
    did_id      UUID,
    type        TEXT NOT NULL,
    description TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    metadata    JSONB
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the
// application schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("attest"),
		tcpostgres.WithUsername("attest"),
		tcpostgres.WithPassword("attest"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
