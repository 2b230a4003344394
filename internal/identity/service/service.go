// Package service orchestrates DID lifecycle operations.
package service

import (
	"context"
	"errors"
	"log/slog"

	"attest/internal/activity"
	"attest/internal/didkey"
	"attest/internal/identity/metrics"
	"attest/internal/identity/models"
	"attest/internal/identity/store"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// UserDirectory is the slice of the user store the identity service needs:
// reading and maintaining the current-DID pointer. The pointer lives on the
// user record, not in ambient state, so it travels with the user row.
type UserDirectory interface {
	CurrentDID(ctx context.Context, userID id.UserID) (id.DIDID, error)
	SetCurrentDID(ctx context.Context, userID id.UserID, didID id.DIDID) error
	SetCurrentDIDIfUnset(ctx context.Context, userID id.UserID, didID id.DIDID) error
}

// Service owns DID creation, lookup, current-DID switching, and the
// owner-only private key reveal.
type Service struct {
	dids     store.Store
	users    UserDirectory
	activity *activity.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(dids store.Store, users UserDirectory, publisher *activity.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		dids:     dids,
		users:    users,
		activity: publisher,
		metrics:  m,
		logger:   logger,
	}
}

// CreateIdentity generates a fresh keypair, derives the DID string, persists
// the record, and makes it the user's current DID when none is set yet
// (first-created-wins).
func (s *Service) CreateIdentity(ctx context.Context, userID id.UserID) (*models.DID, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	publicKey, privateKey, err := didkey.GenerateKeyPair()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate keypair")
	}
	didString := didkey.DeriveDID(publicKey)

	record, err := models.NewDID(
		id.NewDIDID(), userID, didString, publicKey,
		models.SensitiveKey(privateKey), didkey.Method,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.dids.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Same public key hash already registered. With a CSPRNG this is
			// a uniqueness violation worth surfacing, not retrying.
			return nil, dErrors.New(dErrors.CodeConflict, "derived DID already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist DID")
	}

	if err := s.users.SetCurrentDIDIfUnset(ctx, userID, record.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to set current DID pointer",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"did_id", record.ID,
			"error", err,
		)
	}

	s.activity.Record(ctx, userID, &record.ID, activity.TypeDIDCreated,
		"Created decentralized identifier "+record.DID,
		map[string]any{"did": record.DID, "method": record.Method},
	)
	s.metrics.IncrementDIDsCreated()
	return record, nil
}

// List returns all DIDs owned by userID, oldest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.DID, error) {
	dids, err := s.dids.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list DIDs")
	}
	return dids, nil
}

// Current resolves the user's current DID. Returns CodeNoIdentity when the
// user has not created one yet.
func (s *Service) Current(ctx context.Context, userID id.UserID) (*models.DID, error) {
	didID, err := s.users.CurrentDID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoIdentity, "create a DID before using credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve current DID")
	}
	if didID.IsNil() {
		return nil, dErrors.New(dErrors.CodeNoIdentity, "create a DID before using credentials")
	}

	did, err := s.dids.FindByID(ctx, didID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoIdentity, "current DID no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load current DID")
	}
	return did, nil
}

// SwitchCurrent makes didID the user's current DID after an ownership check.
func (s *Service) SwitchCurrent(ctx context.Context, userID id.UserID, didID id.DIDID) (*models.DID, error) {
	did, err := s.ownedDID(ctx, userID, didID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetCurrentDID(ctx, userID, didID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to switch current DID")
	}
	s.metrics.IncrementCurrentDIDSwitches()
	return did, nil
}

// RevealPrivateKey returns the cleartext private key to its owner. Every
// reveal is logged and counted; this is the only path that reads the key out
// of a DID record.
func (s *Service) RevealPrivateKey(ctx context.Context, userID id.UserID, didID id.DIDID) (string, error) {
	did, err := s.ownedDID(ctx, userID, didID)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "private key revealed to owner",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"did_id", didID,
	)
	s.metrics.IncrementPrivateKeyReveals()
	return did.SigningKey.Reveal(), nil
}

// Resolve finds a DID record by its did:key string. Used by verification to
// recover the issuer's public key.
func (s *Service) Resolve(ctx context.Context, didString string) (*models.DID, error) {
	did, err := s.dids.FindByDID(ctx, didString)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "DID not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve DID")
	}
	return did, nil
}

// DeleteByUser removes all of a user's DIDs; one leg of account deletion.
func (s *Service) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if err := s.dids.DeleteByUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete DIDs")
	}
	return nil
}

func (s *Service) ownedDID(ctx context.Context, userID id.UserID, didID id.DIDID) (*models.DID, error) {
	did, err := s.dids.FindByID(ctx, didID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "DID not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load DID")
	}
	if !did.OwnedBy(userID) {
		// Report not-found rather than forbidden so probing cannot confirm
		// another user's DID record IDs.
		return nil, dErrors.New(dErrors.CodeNotFound, "DID not found")
	}
	return did, nil
}
