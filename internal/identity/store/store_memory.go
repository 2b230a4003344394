package store

import (
	"context"
	"sort"
	"sync"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// InMemory keeps DID records in memory, favoring clarity over performance.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[id.DIDID]*models.DID
	byDID map[string]id.DIDID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[id.DIDID]*models.DID),
		byDID: make(map[string]id.DIDID),
	}
}

func (s *InMemory) Create(_ context.Context, did *models.DID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byDID[did.DID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	copied := *did
	s.byID[did.ID] = &copied
	s.byDID[did.DID] = did.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, didID id.DIDID) (*models.DID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	did, ok := s.byID[didID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *did
	return &copied, nil
}

func (s *InMemory) FindByDID(_ context.Context, didString string) (*models.DID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	didID, ok := s.byDID[didString]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[didID]
	return &copied, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.DID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DID
	for _, did := range s.byID {
		if did.UserID == userID {
			copied := *did
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for didID, did := range s.byID {
		if did.UserID == userID {
			delete(s.byDID, did.DID)
			delete(s.byID, didID)
		}
	}
	return nil
}
