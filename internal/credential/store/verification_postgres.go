package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attest/internal/credential/models"
	id "attest/pkg/domain"
)

// VerificationPostgres persists verification audit records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE verifications (
//	    id            UUID PRIMARY KEY,
//	    credential_id UUID,
//	    verifier      TEXT NOT NULL,
//	    verified_at   TIMESTAMPTZ NOT NULL,
//	    is_valid      BOOLEAN NOT NULL,
//	    method        TEXT NOT NULL,
//	    policy        TEXT NOT NULL,
//	    device        TEXT NOT NULL DEFAULT '',
//	    checks        JSONB NOT NULL
//	);
//	CREATE INDEX verifications_credential_idx ON verifications (credential_id, verified_at DESC);
type VerificationPostgres struct {
	db *sql.DB
}

func NewVerificationPostgres(db *sql.DB) *VerificationPostgres {
	return &VerificationPostgres{db: db}
}

func (s *VerificationPostgres) Append(ctx context.Context, verification *models.Verification) error {
	checks, err := json.Marshal(verification.Checks)
	if err != nil {
		return fmt.Errorf("marshal verification checks: %w", err)
	}

	var credentialID uuid.NullUUID
	if verification.CredentialID != nil {
		credentialID = uuid.NullUUID{UUID: uuid.UUID(*verification.CredentialID), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, credential_id, verifier, verified_at, is_valid, method, policy, device, checks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(verification.ID), credentialID, verification.Verifier,
		verification.VerifiedAt, verification.IsValid, verification.Method,
		verification.Policy, verification.Device, checks,
	)
	if err != nil {
		return fmt.Errorf("append verification: %w", err)
	}
	return nil
}

func (s *VerificationPostgres) ListByCredential(ctx context.Context, credentialID id.CredentialID) ([]*models.Verification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, credential_id, verifier, verified_at, is_valid, method, policy, device, checks
		FROM verifications
		WHERE credential_id = $1
		ORDER BY verified_at DESC`,
		uuid.UUID(credentialID),
	)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Verification
	for rows.Next() {
		var (
			verification models.Verification
			rowID        uuid.UUID
			rowCredID    uuid.NullUUID
			checks       []byte
		)
		if err := rows.Scan(
			&rowID, &rowCredID, &verification.Verifier, &verification.VerifiedAt,
			&verification.IsValid, &verification.Method, &verification.Policy,
			&verification.Device, &checks,
		); err != nil {
			return nil, fmt.Errorf("scan verification row: %w", err)
		}
		verification.ID = id.VerificationID(rowID)
		if rowCredID.Valid {
			credID := id.CredentialID(rowCredID.UUID)
			verification.CredentialID = &credID
		}
		if err := json.Unmarshal(checks, &verification.Checks); err != nil {
			return nil, fmt.Errorf("unmarshal verification checks: %w", err)
		}
		out = append(out, &verification)
	}
	return out, rows.Err()
}

func (s *VerificationPostgres) DeleteByCredentials(ctx context.Context, credentialIDs []id.CredentialID) error {
	if len(credentialIDs) == 0 {
		return nil
	}
	ids := make([]string, len(credentialIDs))
	for i, credentialID := range credentialIDs {
		ids[i] = credentialID.String()
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM verifications WHERE credential_id = ANY($1)`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("delete verifications by credentials: %w", err)
	}
	return nil
}
