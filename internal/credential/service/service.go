// Package service orchestrates credential issuance, verification,
// revocation, and selective disclosure.
package service

import (
	"context"
	"errors"
	"log/slog"

	"attest/internal/credential/cache"
	"attest/internal/credential/metrics"
	"attest/internal/credential/models"
	"attest/internal/credential/store"
	identitymodels "attest/internal/identity/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"

	"attest/internal/activity"
)

// IdentityResolver is the slice of the identity service the credential module
// needs: the caller's current DID for issuance, DID-string resolution for
// signature checks, and the caller's full DID set for ownership walks.
type IdentityResolver interface {
	Current(ctx context.Context, userID id.UserID) (*identitymodels.DID, error)
	Resolve(ctx context.Context, didString string) (*identitymodels.DID, error)
	List(ctx context.Context, userID id.UserID) ([]*identitymodels.DID, error)
}

// Service owns the credential lifecycle.
type Service struct {
	credentials   store.Store
	verifications store.VerificationStore
	identities    IdentityResolver
	shareCache    *cache.ShareTokenCache
	activity      *activity.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithShareTokenCache enables the Redis lookaside for public share-link
// resolution.
func WithShareTokenCache(c *cache.ShareTokenCache) Option {
	return func(s *Service) { s.shareCache = c }
}

func New(
	credentials store.Store,
	verifications store.VerificationStore,
	identities IdentityResolver,
	publisher *activity.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		credentials:   credentials,
		verifications: verifications,
		identities:    identities,
		activity:      publisher,
		metrics:       m,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListByUser returns every credential owned by any of the user's DIDs,
// newest first.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Credential, error) {
	dids, err := s.identities.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	credentials, err := s.credentials.ListByDIDs(ctx, didIDs(dids))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return credentials, nil
}

// Get returns one credential after an ownership check.
func (s *Service) Get(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.Credential, error) {
	credential, _, err := s.ownedCredential(ctx, userID, credentialID)
	return credential, err
}

// VerificationHistory returns the verification records for an owned
// credential, newest first.
func (s *Service) VerificationHistory(ctx context.Context, userID id.UserID, credentialID id.CredentialID) ([]*models.Verification, error) {
	if _, _, err := s.ownedCredential(ctx, userID, credentialID); err != nil {
		return nil, err
	}
	history, err := s.verifications.ListByCredential(ctx, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return history, nil
}

// DeleteByUser removes the user's verifications and credentials; one leg of
// account deletion. Runs before the DID leg so the ownership walk still
// resolves.
func (s *Service) DeleteByUser(ctx context.Context, userID id.UserID) error {
	dids, err := s.identities.List(ctx, userID)
	if err != nil {
		return err
	}
	owned := didIDs(dids)

	credentials, err := s.credentials.ListByDIDs(ctx, owned)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials for deletion")
	}
	credentialIDs := make([]id.CredentialID, 0, len(credentials))
	for _, credential := range credentials {
		credentialIDs = append(credentialIDs, credential.ID)
		if credential.ShareToken != "" {
			s.shareCache.Invalidate(ctx, credential.ShareToken)
		}
	}

	if err := s.verifications.DeleteByCredentials(ctx, credentialIDs); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete verifications")
	}
	if err := s.credentials.DeleteByDIDs(ctx, owned); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete credentials")
	}
	return nil
}

// ownedCredential loads a credential and walks credential → DID → user to
// confirm ownership. Foreign credentials report not-found so record IDs
// cannot be probed.
func (s *Service) ownedCredential(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.Credential, *identitymodels.DID, error) {
	credential, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeCredentialNotFound, "credential not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	dids, err := s.identities.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	for _, did := range dids {
		if did.ID == credential.DIDID {
			return credential, did, nil
		}
	}
	return nil, nil, dErrors.New(dErrors.CodeCredentialNotFound, "credential not found")
}

func didIDs(dids []*identitymodels.DID) []id.DIDID {
	out := make([]id.DIDID, len(dids))
	for i, did := range dids {
		out[i] = did.ID
	}
	return out
}
