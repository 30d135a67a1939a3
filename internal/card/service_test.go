package card

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultbridge/internal/events"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// memStore keeps tests inside the package without importing the store
// subpackage.
type memStore struct {
	mu     sync.Mutex
	byUser map[id.UserID]Card
}

func newMemStore() *memStore {
	return &memStore{byUser: make(map[id.UserID]Card)}
}

func (s *memStore) Insert(_ context.Context, c Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUser[c.UserID]; exists {
		return sentinel.ErrConflict
	}
	s.byUser[c.UserID] = c
	return nil
}

func (s *memStore) FindByUser(_ context.Context, userID id.UserID) (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byUser[userID]
	if !ok {
		return Card{}, sentinel.ErrNotFound
	}
	return c, nil
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), events.NopEmitter{}, slog.New(slog.DiscardHandler))
	userID := id.NewUserID()

	first, err := svc.Issue(ctx, userID)
	require.NoError(t, err)

	assert.Len(t, first.Number, 16)
	assert.True(t, strings.HasPrefix(first.Number, "4"))
	assert.True(t, LuhnValid(first.Number), "card number must pass the Luhn check: %s", first.Number)
	assert.Len(t, first.CVV, 3)
	assert.Equal(t, "usdc", first.Currency)
	assert.GreaterOrEqual(t, first.Balance, 10.0)
	assert.LessOrEqual(t, first.Balance, 1000.0)

	now := time.Now().UTC()
	assert.True(t, first.ExpiresAt.After(now.AddDate(0, 11, 0)), "expiry at least about a year out")
	assert.True(t, first.ExpiresAt.Before(now.AddDate(5, 1, 0)), "expiry at most about five years out")

	t.Run("repeat issue returns the same card", func(t *testing.T) {
		second, err := svc.Issue(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Number, second.Number)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), events.NopEmitter{}, slog.New(slog.DiscardHandler))

	_, err := svc.Get(ctx, id.NewUserID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, LuhnValid("4539578763621486"))
	assert.False(t, LuhnValid("4539578763621487"))
	assert.False(t, LuhnValid(""))
	assert.False(t, LuhnValid("4539x78763621486"))
}

func TestGenerateNumberAlwaysLuhnValid(t *testing.T) {
	for range 200 {
		n, err := generateNumber()
		require.NoError(t, err)
		require.Len(t, n, 16)
		require.True(t, LuhnValid(n), "generated number failed Luhn: %s", n)
	}
}

func TestMasked(t *testing.T) {
	assert.Equal(t, "**** **** **** 1486", Masked("4539578763621486"))
	assert.Equal(t, "123", Masked("123"))
}
