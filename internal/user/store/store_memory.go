package store

import (
	"context"
	"strings"
	"sync"

	"vaultbridge/internal/kyc"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

// MemoryStore is the in-memory user store used in tests and databaseless
// development. Semantics mirror the postgres store, including the unique
// email constraint.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]user.User
	byEmail map[string]id.UserID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[id.UserID]user.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *MemoryStore) Create(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return user.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[emailKey(email)]
	if !ok {
		return user.User{}, sentinel.ErrNotFound
	}
	return s.byID[userID], nil
}

func (s *MemoryStore) SaveKYCLink(_ context.Context, userID id.UserID, linkID, kycURL, tosURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.KYCLinkID = linkID
	u.KYCLinkURL = kycURL
	u.TOSLinkURL = tosURL
	s.byID[userID] = u
	return nil
}

func (s *MemoryStore) SaveVerification(_ context.Context, userID id.UserID, kycStatus kyc.KYCStatus, tosStatus kyc.TOSStatus, verified bool, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.KYCStatus = kycStatus
	u.TOSStatus = tosStatus
	u.IsVerified = verified
	u.BridgeCustomerID = customerID
	s.byID[userID] = u
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
