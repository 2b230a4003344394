package service

import (
	"context"
	"errors"

	"attest/internal/activity"
	"attest/internal/credential/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// Revoke transitions an owned credential to revoked. The transition is
// terminal: no verification entry point reports a revoked credential as
// valid afterwards. Revoking twice is an error so the caller learns the
// record was already dead.
func (s *Service) Revoke(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*models.Credential, error) {
	credential, did, err := s.ownedCredential(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}

	if err := credential.ApplyRevocation(); err != nil {
		return nil, err
	}
	if err := s.credentials.UpdateStatus(ctx, credentialID, models.StatusRevoked); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeCredentialNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	if credential.ShareToken != "" {
		s.shareCache.Invalidate(ctx, credential.ShareToken)
	}

	s.activity.Record(ctx, userID, &did.ID, activity.TypeCredentialRevoked,
		"Revoked credential "+credential.Title,
		map[string]any{"credential_id": credential.ID.String()},
	)
	s.logger.InfoContext(ctx, "credential revoked",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"credential_id", credentialID,
	)
	s.metrics.IncrementRevocations()
	return credential, nil
}
