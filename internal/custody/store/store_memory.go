package store

import (
	"context"
	"sort"
	"sync"

	"vaultbridge/internal/custody"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

type chainKey struct {
	userID id.UserID
	chain  string
}

// MemoryWalletStore is the in-memory wallet store used in tests and
// databaseless development. Semantics mirror the postgres store, including
// the (user_id, chain) unique constraint.
type MemoryWalletStore struct {
	mu      sync.RWMutex
	byChain map[chainKey]custody.Wallet
}

func NewMemoryWalletStore() *MemoryWalletStore {
	return &MemoryWalletStore{byChain: make(map[chainKey]custody.Wallet)}
}

func (s *MemoryWalletStore) Insert(_ context.Context, w custody.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chainKey{userID: w.UserID, chain: w.Chain}
	if _, exists := s.byChain[key]; exists {
		return sentinel.ErrConflict
	}
	s.byChain[key] = w
	return nil
}

func (s *MemoryWalletStore) FindByUserAndChain(_ context.Context, userID id.UserID, chain string) (custody.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byChain[chainKey{userID: userID, chain: chain}]
	if !ok {
		return custody.Wallet{}, sentinel.ErrNotFound
	}
	return w, nil
}

func (s *MemoryWalletStore) ListByUser(_ context.Context, userID id.UserID) ([]custody.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []custody.Wallet
	for key, w := range s.byChain {
		if key.userID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out, nil
}

// MemoryAddressStore is the in-memory liquidation address store.
type MemoryAddressStore struct {
	mu      sync.RWMutex
	byChain map[chainKey]custody.LiquidationAddress
}

func NewMemoryAddressStore() *MemoryAddressStore {
	return &MemoryAddressStore{byChain: make(map[chainKey]custody.LiquidationAddress)}
}

func (s *MemoryAddressStore) Insert(_ context.Context, a custody.LiquidationAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chainKey{userID: a.UserID, chain: a.Chain}
	if _, exists := s.byChain[key]; exists {
		return sentinel.ErrConflict
	}
	s.byChain[key] = a
	return nil
}

func (s *MemoryAddressStore) FindByUserAndChain(_ context.Context, userID id.UserID, chain string) (custody.LiquidationAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byChain[chainKey{userID: userID, chain: chain}]
	if !ok {
		return custody.LiquidationAddress{}, sentinel.ErrNotFound
	}
	return a, nil
}

func (s *MemoryAddressStore) ListByUser(_ context.Context, userID id.UserID) ([]custody.LiquidationAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []custody.LiquidationAddress
	for key, a := range s.byChain {
		if key.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out, nil
}
