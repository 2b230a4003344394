package store

import (
	"context"
	"sort"
	"sync"

	"attest/internal/credential/models"
	id "attest/pkg/domain"
)

// VerificationInMemory keeps verification records in memory.
type VerificationInMemory struct {
	mu      sync.RWMutex
	entries []*models.Verification
}

func NewVerificationInMemory() *VerificationInMemory {
	return &VerificationInMemory{}
}

func (s *VerificationInMemory) Append(_ context.Context, verification *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *verification
	if verification.CredentialID != nil {
		credentialID := *verification.CredentialID
		copied.CredentialID = &credentialID
	}
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *VerificationInMemory) ListByCredential(_ context.Context, credentialID id.CredentialID) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Verification
	for _, entry := range s.entries {
		if entry.CredentialID != nil && *entry.CredentialID == credentialID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VerifiedAt.After(out[j].VerifiedAt)
	})
	return out, nil
}

func (s *VerificationInMemory) DeleteByCredentials(_ context.Context, credentialIDs []id.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[id.CredentialID]bool, len(credentialIDs))
	for _, credentialID := range credentialIDs {
		doomed[credentialID] = true
	}

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.CredentialID != nil && doomed[*entry.CredentialID] {
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return nil
}
