// Package store persists DID records.
package store

import (
	"context"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
)

// Store is the DID persistence interface. Implementations return sentinel
// errors (sentinel.ErrNotFound, sentinel.ErrAlreadyUsed) for resource facts.
type Store interface {
	// Create persists a new DID record. Returns sentinel.ErrAlreadyUsed when
	// the DID string is already registered (hash collision or duplicate key).
	Create(ctx context.Context, did *models.DID) error
	FindByID(ctx context.Context, didID id.DIDID) (*models.DID, error)
	FindByDID(ctx context.Context, didString string) (*models.DID, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.DID, error)
	DeleteByUser(ctx context.Context, userID id.UserID) error
}
