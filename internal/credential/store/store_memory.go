package store

import (
	"context"
	"sort"
	"sync"

	"attest/internal/credential/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// InMemory keeps credential records in memory, favoring clarity over
// performance.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.CredentialID]*models.Credential
	byToken  map[string]id.CredentialID
	contents map[string]models.Content
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.CredentialID]*models.Credential),
		byToken:  make(map[string]id.CredentialID),
		contents: make(map[string]models.Content),
	}
}

func (s *InMemory) Create(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if credential.ShareToken != "" {
		if _, exists := s.byToken[credential.ShareToken]; exists {
			return sentinel.ErrAlreadyUsed
		}
	}
	copied := copyCredential(credential)
	s.byID[credential.ID] = copied
	if credential.ShareToken != "" {
		s.byToken[credential.ShareToken] = credential.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.byID[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCredential(credential), nil
}

func (s *InMemory) FindByShareToken(_ context.Context, shareToken string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credentialID, ok := s.byToken[shareToken]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCredential(s.byID[credentialID]), nil
}

func (s *InMemory) ListByDIDs(_ context.Context, didIDs []id.DIDID) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make(map[id.DIDID]bool, len(didIDs))
	for _, didID := range didIDs {
		owned[didID] = true
	}

	var out []*models.Credential
	for _, credential := range s.byID {
		if owned[credential.DIDID] {
			out = append(out, copyCredential(credential))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, credentialID id.CredentialID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.byID[credentialID]
	if !ok {
		return sentinel.ErrNotFound
	}
	credential.Status = status
	return nil
}

func (s *InMemory) DeleteByDIDs(_ context.Context, didIDs []id.DIDID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[id.DIDID]bool, len(didIDs))
	for _, didID := range didIDs {
		owned[didID] = true
	}
	for credentialID, credential := range s.byID {
		if owned[credential.DIDID] {
			if credential.ShareToken != "" {
				delete(s.byToken, credential.ShareToken)
			}
			delete(s.byID, credentialID)
		}
	}
	return nil
}

func (s *InMemory) SaveContent(_ context.Context, content models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contents[content.ID]; !exists {
		s.contents[content.ID] = content
	}
	return nil
}

func copyCredential(credential *models.Credential) *models.Credential {
	copied := *credential
	if credential.ExpiresAt != nil {
		expiresAt := *credential.ExpiresAt
		copied.ExpiresAt = &expiresAt
	}
	return &copied
}
