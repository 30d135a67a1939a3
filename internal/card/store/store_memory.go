package store

import (
	"context"
	"sync"

	"vaultbridge/internal/card"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

// MemoryStore is the in-memory card store used in tests and databaseless
// development.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID]card.Card
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[id.UserID]card.Card)}
}

func (s *MemoryStore) Insert(_ context.Context, c card.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[c.UserID]; exists {
		return sentinel.ErrConflict
	}
	s.byUser[c.UserID] = c
	return nil
}

func (s *MemoryStore) FindByUser(_ context.Context, userID id.UserID) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byUser[userID]
	if !ok {
		return card.Card{}, sentinel.ErrNotFound
	}
	return c, nil
}
