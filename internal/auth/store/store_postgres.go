package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attest/internal/auth/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE users (
//	    id             UUID PRIMARY KEY,
//	    email          TEXT NOT NULL,
//	    password_hash  TEXT NOT NULL,
//	    is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
//	    current_did_id UUID,
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX users_email_idx ON users (lower(email));
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.Admin, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_admin, current_did_id, created_at
		FROM users WHERE id = $1`,
		uuid.UUID(userID),
	))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_admin, current_did_id, created_at
		FROM users WHERE lower(email) = lower($1)`,
		email,
	))
}

func (s *PostgresStore) CurrentDID(ctx context.Context, userID id.UserID) (id.DIDID, error) {
	var currentDID uuid.NullUUID
	err := s.db.QueryRowContext(ctx, `SELECT current_did_id FROM users WHERE id = $1`, uuid.UUID(userID)).Scan(&currentDID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.DIDID{}, sentinel.ErrNotFound
		}
		return id.DIDID{}, fmt.Errorf("read current did: %w", err)
	}
	if !currentDID.Valid {
		return id.DIDID{}, nil
	}
	return id.DIDID(currentDID.UUID), nil
}

func (s *PostgresStore) SetCurrentDID(ctx context.Context, userID id.UserID, didID id.DIDID) error {
	return s.updateCurrentDID(ctx, userID, didID, false)
}

func (s *PostgresStore) SetCurrentDIDIfUnset(ctx context.Context, userID id.UserID, didID id.DIDID) error {
	return s.updateCurrentDID(ctx, userID, didID, true)
}

func (s *PostgresStore) updateCurrentDID(ctx context.Context, userID id.UserID, didID id.DIDID, onlyIfUnset bool) error {
	query := `UPDATE users SET current_did_id = $2 WHERE id = $1`
	if onlyIfUnset {
		query += ` AND current_did_id IS NULL`
	}
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(userID), uuid.UUID(didID))
	if err != nil {
		return fmt.Errorf("update current did: %w", err)
	}
	if !onlyIfUnset {
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update current did: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrNotFound
		}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user       models.User
		userID     uuid.UUID
		currentDID uuid.NullUUID
	)
	err := row.Scan(&userID, &user.Email, &user.PasswordHash, &user.Admin, &currentDID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	user.ID = id.UserID(userID)
	if currentDID.Valid {
		user.CurrentDIDID = id.DIDID(currentDID.UUID)
	}
	return &user, nil
}
