package store

import (
	"context"
	"strings"
	"sync"

	"attest/internal/auth/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// InMemory keeps users in memory. Email uniqueness is case-insensitive,
// matching the Postgres store's lower(email) unique index.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[userID]
	return &copied, nil
}

func (s *InMemory) CurrentDID(_ context.Context, userID id.UserID) (id.DIDID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[userID]
	if !ok {
		return id.DIDID{}, sentinel.ErrNotFound
	}
	return user.CurrentDIDID, nil
}

func (s *InMemory) SetCurrentDID(_ context.Context, userID id.UserID, didID id.DIDID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.CurrentDIDID = didID
	return nil
}

func (s *InMemory) SetCurrentDIDIfUnset(_ context.Context, userID id.UserID, didID id.DIDID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if user.CurrentDIDID.IsNil() {
		user.CurrentDIDID = didID
	}
	return nil
}

func (s *InMemory) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(user.Email))
	delete(s.byID, userID)
	return nil
}
