package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for unique constraint hits.
const uniqueViolation = "23505"

// PostgresStore persists DID records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE dids (
//	    id          UUID PRIMARY KEY,
//	    user_id     UUID NOT NULL,
//	    did         TEXT NOT NULL UNIQUE,
//	    public_key  TEXT NOT NULL,
//	    signing_key TEXT NOT NULL,
//	    method      TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    metadata    JSONB
//	);
//	CREATE INDEX dids_user_idx ON dids (user_id, created_at);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, did *models.DID) error {
	metadata, err := json.Marshal(did.Metadata)
	if err != nil {
		return fmt.Errorf("marshal did metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dids (id, user_id, did, public_key, signing_key, method, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(did.ID), uuid.UUID(did.UserID), did.DID,
		did.PublicKey, did.SigningKey.Reveal(), did.Method, did.CreatedAt, metadata,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create did: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, didID id.DIDID) (*models.DID, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, did, public_key, signing_key, method, created_at, metadata
		FROM dids WHERE id = $1`,
		uuid.UUID(didID),
	))
}

func (s *PostgresStore) FindByDID(ctx context.Context, didString string) (*models.DID, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, did, public_key, signing_key, method, created_at, metadata
		FROM dids WHERE did = $1`,
		didString,
	))
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.DID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, did, public_key, signing_key, method, created_at, metadata
		FROM dids WHERE user_id = $1
		ORDER BY created_at`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list dids: %w", err)
	}
	defer rows.Close()

	var out []*models.DID
	for rows.Next() {
		did, err := scanDID(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, did)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dids WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("delete dids by user: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.DID, error) {
	did, err := scanDID(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return did, nil
}

func scanDID(scan func(...any) error) (*models.DID, error) {
	var (
		did        models.DID
		didID      uuid.UUID
		userID     uuid.UUID
		signingKey string
		metadata   []byte
	)
	if err := scan(&didID, &userID, &did.DID, &did.PublicKey, &signingKey, &did.Method, &did.CreatedAt, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan did row: %w", err)
	}
	did.ID = id.DIDID(didID)
	did.UserID = id.UserID(userID)
	did.SigningKey = models.SensitiveKey(signingKey)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &did.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal did metadata: %w", err)
		}
	}
	return &did, nil
}
