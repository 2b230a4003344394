package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "attest/pkg/domain"
)

// PostgresStore persists activity entries in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE activities (
//	    id          UUID PRIMARY KEY,
//	    user_id     UUID NOT NULL,
//	    did_id      UUID,
//	    type        TEXT NOT NULL,
//	    description TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    metadata    JSONB
//	);
//	CREATE INDEX activities_user_created_idx ON activities (user_id, created_at DESC);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	var didID uuid.NullUUID
	if entry.DIDID != nil {
		didID = uuid.NullUUID{UUID: uuid.UUID(*entry.DIDID), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, did_id, type, description, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(entry.ID), uuid.UUID(entry.UserID), didID,
		string(entry.Type), entry.Description, entry.Timestamp, metadata,
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, did_id, type, description, created_at, metadata
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		uuid.UUID(userID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			entryID  uuid.UUID
			user     uuid.UUID
			didID    uuid.NullUUID
			kind     string
			metadata []byte
		)
		if err := rows.Scan(&entryID, &user, &didID, &kind, &entry.Description, &entry.Timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		entry.ID = id.ActivityID(entryID)
		entry.UserID = id.UserID(user)
		entry.Type = Type(kind)
		if didID.Valid {
			did := id.DIDID(didID.UUID)
			entry.DIDID = &did
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("delete activities by user: %w", err)
	}
	return nil
}
