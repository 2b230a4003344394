// Package store persists user accounts.
package store

import (
	"context"

	"attest/internal/auth/models"
	id "attest/pkg/domain"
)

// Store is the user persistence interface. Implementations return sentinel
// errors for resource facts (not found, email already used).
type Store interface {
	// Create persists a new user. Returns sentinel.ErrAlreadyUsed when the
	// email is taken.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// CurrentDID returns the user's current DID pointer, which may be the
	// zero value when the user has not created a DID yet.
	CurrentDID(ctx context.Context, userID id.UserID) (id.DIDID, error)
	// SetCurrentDID unconditionally points the user at didID.
	SetCurrentDID(ctx context.Context, userID id.UserID, didID id.DIDID) error
	// SetCurrentDIDIfUnset points the user at didID only when no current DID
	// is set, preserving first-created-wins.
	SetCurrentDIDIfUnset(ctx context.Context, userID id.UserID, didID id.DIDID) error
	Delete(ctx context.Context, userID id.UserID) error
}
