package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attest/internal/credential/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for unique constraint hits.
const uniqueViolation = "23505"

// PostgresStore persists credential records in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE credentials (
//	    id           UUID PRIMARY KEY,
//	    did_id       UUID NOT NULL,
//	    type         TEXT NOT NULL,
//	    title        TEXT NOT NULL,
//	    issuer_name  TEXT NOT NULL,
//	    issuer_did   TEXT NOT NULL DEFAULT '',
//	    issued_at    TIMESTAMPTZ NOT NULL,
//	    expires_at   TIMESTAMPTZ,
//	    status       TEXT NOT NULL,
//	    subject      JSONB NOT NULL,
//	    proof        JSONB NOT NULL,
//	    content_id   TEXT NOT NULL DEFAULT '',
//	    image_url    TEXT NOT NULL DEFAULT '',
//	    document_url TEXT NOT NULL DEFAULT '',
//	    share_token  TEXT UNIQUE,
//	    metadata     JSONB
//	);
//	CREATE INDEX credentials_did_idx ON credentials (did_id, issued_at DESC);
//
//	CREATE TABLE contents (
//	    id         TEXT PRIMARY KEY,
//	    byte_size  INTEGER NOT NULL,
//	    mime_type  TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `id, did_id, type, title, issuer_name, issuer_did,
	issued_at, expires_at, status, subject, proof, content_id, image_url,
	document_url, share_token, metadata`

func (s *PostgresStore) Create(ctx context.Context, credential *models.Credential) error {
	subject, err := json.Marshal(credential.Subject)
	if err != nil {
		return fmt.Errorf("marshal credential subject: %w", err)
	}
	proof, err := json.Marshal(credential.Proof)
	if err != nil {
		return fmt.Errorf("marshal credential proof: %w", err)
	}
	metadata, err := json.Marshal(credential.Metadata)
	if err != nil {
		return fmt.Errorf("marshal credential metadata: %w", err)
	}

	var shareToken sql.NullString
	if credential.ShareToken != "" {
		shareToken = sql.NullString{String: credential.ShareToken, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		uuid.UUID(credential.ID), uuid.UUID(credential.DIDID),
		credential.Type, credential.Title, credential.IssuerName, credential.IssuerDID,
		credential.IssuedAt, credential.ExpiresAt, string(credential.Status),
		subject, proof, credential.ContentID, credential.ImageURL,
		credential.DocumentURL, shareToken, metadata,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE id = $1`,
		uuid.UUID(credentialID),
	))
}

func (s *PostgresStore) FindByShareToken(ctx context.Context, shareToken string) (*models.Credential, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE share_token = $1`,
		shareToken,
	))
}

func (s *PostgresStore) ListByDIDs(ctx context.Context, didIDs []id.DIDID) ([]*models.Credential, error) {
	if len(didIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE did_id = ANY($1)
		ORDER BY issued_at DESC`,
		pq.Array(didStrings(didIDs)),
	)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		credential, err := scanCredential(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, credential)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, credentialID id.CredentialID, status models.Status) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET status = $2 WHERE id = $1`,
		uuid.UUID(credentialID), string(status),
	)
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByDIDs(ctx context.Context, didIDs []id.DIDID) error {
	if len(didIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM credentials WHERE did_id = ANY($1)`,
		pq.Array(didStrings(didIDs)),
	)
	if err != nil {
		return fmt.Errorf("delete credentials by dids: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveContent(ctx context.Context, content models.Content) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contents (id, byte_size, mime_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		content.ID, content.ByteSize, content.MimeType, content.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save content record: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Credential, error) {
	credential, err := scanCredential(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return credential, nil
}

func scanCredential(scan func(...any) error) (*models.Credential, error) {
	var (
		credential   models.Credential
		credentialID uuid.UUID
		didID        uuid.UUID
		expiresAt    sql.NullTime
		status       string
		subject      []byte
		proof        []byte
		shareToken   sql.NullString
		metadata     []byte
	)
	if err := scan(
		&credentialID, &didID, &credential.Type, &credential.Title,
		&credential.IssuerName, &credential.IssuerDID, &credential.IssuedAt,
		&expiresAt, &status, &subject, &proof, &credential.ContentID,
		&credential.ImageURL, &credential.DocumentURL, &shareToken, &metadata,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan credential row: %w", err)
	}

	credential.ID = id.CredentialID(credentialID)
	credential.DIDID = id.DIDID(didID)
	credential.Status = models.Status(status)
	if expiresAt.Valid {
		credential.ExpiresAt = &expiresAt.Time
	}
	if shareToken.Valid {
		credential.ShareToken = shareToken.String
	}
	if err := json.Unmarshal(subject, &credential.Subject); err != nil {
		return nil, fmt.Errorf("unmarshal credential subject: %w", err)
	}
	if err := json.Unmarshal(proof, &credential.Proof); err != nil {
		return nil, fmt.Errorf("unmarshal credential proof: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &credential.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal credential metadata: %w", err)
		}
	}
	return &credential, nil
}

func didStrings(didIDs []id.DIDID) []string {
	out := make([]string, len(didIDs))
	for i, didID := range didIDs {
		out[i] = didID.String()
	}
	return out
}
