// Package store persists credential, verification, and content records.
// Implementations return sentinel errors; services translate them into
// domain errors.
package store

import (
	"context"

	"attest/internal/credential/models"
	id "attest/pkg/domain"
)

// Store is the credential record store.
type Store interface {
	// Create persists a new credential. Returns sentinel.ErrAlreadyUsed when
	// the share token is already taken.
	Create(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	// FindByShareToken resolves the unauthenticated locator. Returns
	// sentinel.ErrNotFound for unknown tokens.
	FindByShareToken(ctx context.Context, shareToken string) (*models.Credential, error)
	// ListByDIDs returns all credentials owned by the given DIDs, newest
	// first.
	ListByDIDs(ctx context.Context, didIDs []id.DIDID) ([]*models.Credential, error)
	// UpdateStatus writes the status transition. Status is the only mutable
	// field on a credential.
	UpdateStatus(ctx context.Context, credentialID id.CredentialID, status models.Status) error
	DeleteByDIDs(ctx context.Context, didIDs []id.DIDID) error
	// SaveContent records the fabricated content-hash side record. Saving the
	// same content ID twice is a no-op.
	SaveContent(ctx context.Context, content models.Content) error
}

// VerificationStore is the append-only verification audit store.
type VerificationStore interface {
	Append(ctx context.Context, verification *models.Verification) error
	// ListByCredential returns a credential's verification history, newest
	// first.
	ListByCredential(ctx context.Context, credentialID id.CredentialID) ([]*models.Verification, error)
	DeleteByCredentials(ctx context.Context, credentialIDs []id.CredentialID) error
}
