package custody_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultbridge/internal/bridge"
	"vaultbridge/internal/custody"
	custodystore "vaultbridge/internal/custody/store"
	"vaultbridge/internal/events"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/user"
	userstore "vaultbridge/internal/user/store"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
)

type fakeGateway struct {
	walletCalls  int
	addressCalls int
	detailCalls  int
	err          error
}

func (f *fakeGateway) CreateWallet(_ context.Context, _, chain string) (bridge.Wallet, error) {
	f.walletCalls++
	if f.err != nil {
		return bridge.Wallet{}, f.err
	}
	return bridge.Wallet{ID: "bw_1", Chain: chain, Address: "SoL4ddr"}, nil
}

func (f *fakeGateway) GetWallet(_ context.Context, _, walletID string) (bridge.WalletDetail, error) {
	f.detailCalls++
	if f.err != nil {
		return bridge.WalletDetail{}, f.err
	}
	return bridge.WalletDetail{
		Wallet:   bridge.Wallet{ID: walletID, Chain: "solana", Address: "SoL4ddr"},
		Balances: []bridge.WalletBalance{{Balance: "42.0", Currency: "usdc", Chain: "solana"}},
	}, nil
}

func (f *fakeGateway) CreateLiquidationAddress(_ context.Context, _ string, req bridge.LiquidationAddressRequest) (bridge.LiquidationAddress, error) {
	f.addressCalls++
	if f.err != nil {
		return bridge.LiquidationAddress{}, f.err
	}
	return bridge.LiquidationAddress{
		ID:                     "la_1",
		Chain:                  req.Chain,
		Currency:               req.Currency,
		Address:                "GSTELLARADDR",
		DestinationPaymentRail: req.DestinationPaymentRail,
		DestinationCurrency:    req.DestinationCurrency,
		State:                  "active",
	}, nil
}

type fixture struct {
	svc     *custody.Service
	gateway *fakeGateway
	users   *userstore.MemoryStore
	wallets *custodystore.MemoryWalletStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gateway := &fakeGateway{}
	users := userstore.NewMemoryStore()
	wallets := custodystore.NewMemoryWalletStore()
	addresses := custodystore.NewMemoryAddressStore()
	svc := custody.NewService(users, gateway, wallets, addresses, events.NopEmitter{}, nil, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, gateway: gateway, users: users, wallets: wallets}
}

func (f *fixture) seedUser(t *testing.T, customerID string) id.UserID {
	t.Helper()
	userID := id.NewUserID()
	u := user.User{
		ID:               userID,
		FullName:         "Ada Lovelace",
		Email:            userID.String() + "@example.com",
		BridgeCustomerID: customerID,
		KYCStatus:        kyc.KYCApproved,
		TOSStatus:        kyc.TOSApproved,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func TestEnsureWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("creates once, second call is a local read", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")

		first, err := f.svc.EnsureWallet(ctx, userID, "solana")
		require.NoError(t, err)
		assert.Equal(t, "bw_1", first.BridgeWalletID)
		assert.Equal(t, "solana", first.Chain)

		second, err := f.svc.EnsureWallet(ctx, userID, "solana")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, f.gateway.walletCalls, "provider must be called at most once per (user, chain)")
	})

	t.Run("no customer id means no provider call", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "")

		_, err := f.svc.EnsureWallet(ctx, userID, "solana")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		assert.Zero(t, f.gateway.walletCalls)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.EnsureWallet(ctx, id.NewUserID(), "solana")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("provider failure leaves nothing behind", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")
		f.gateway.err = errors.New("502 bad gateway")

		_, err := f.svc.EnsureWallet(ctx, userID, "solana")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		_, err = f.svc.GetWallet(ctx, userID, "solana")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("losing the insert race returns the winner's row", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")

		// Simulate a concurrent winner landing between the existence check
		// and the insert.
		winner := custody.Wallet{
			ID:             id.NewWalletID(),
			UserID:         userID,
			BridgeWalletID: "bw_winner",
			Chain:          "solana",
			Address:        "WiNnEr",
			CreatedAt:      time.Now().UTC(),
		}
		raceOnce := &racingWalletStore{MemoryWalletStore: f.wallets, winner: winner}
		svc := custody.NewService(f.users, f.gateway, raceOnce, custodystore.NewMemoryAddressStore(), events.NopEmitter{}, nil, slog.New(slog.DiscardHandler))

		got, err := svc.EnsureWallet(ctx, userID, "solana")
		require.NoError(t, err)
		assert.Equal(t, "bw_winner", got.BridgeWalletID)
	})

	t.Run("empty chain defaults to solana", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")

		w, err := f.svc.EnsureWallet(ctx, userID, "")
		require.NoError(t, err)
		assert.Equal(t, custody.DefaultWalletChain, w.Chain)
	})
}

// racingWalletStore reports not-found on the first lookup, then inserts the
// winner before rejecting the caller's insert, mimicking a lost race.
type racingWalletStore struct {
	*custodystore.MemoryWalletStore
	winner   custody.Wallet
	inserted bool
}

func (s *racingWalletStore) Insert(ctx context.Context, w custody.Wallet) error {
	if !s.inserted {
		s.inserted = true
		if err := s.MemoryWalletStore.Insert(ctx, s.winner); err != nil {
			return err
		}
	}
	return s.MemoryWalletStore.Insert(ctx, w)
}

func TestEnsureLiquidationAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("creates once over the default corridor", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")

		w, err := f.svc.EnsureWallet(ctx, userID, "solana")
		require.NoError(t, err)

		spec := custody.DefaultCorridor(w.BridgeWalletID)
		first, err := f.svc.EnsureLiquidationAddress(ctx, userID, spec)
		require.NoError(t, err)
		assert.Equal(t, "stellar", first.Chain)
		assert.Equal(t, "usdc", first.Currency)
		assert.Equal(t, "solana", first.DestinationPaymentRail)

		second, err := f.svc.EnsureLiquidationAddress(ctx, userID, spec)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, f.gateway.addressCalls)
	})

	t.Run("missing destination wallet is a precondition failure", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "cust_1")

		_, err := f.svc.EnsureLiquidationAddress(ctx, userID, custody.DefaultCorridor(""))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		assert.Zero(t, f.gateway.addressCalls)
	})

	t.Run("no customer id means no provider call", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, "")

		_, err := f.svc.EnsureLiquidationAddress(ctx, userID, custody.DefaultCorridor("bw_1"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		assert.Zero(t, f.gateway.addressCalls)
	})
}

func TestListWallets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.seedUser(t, "cust_1")

	empty, err := f.svc.ListWallets(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.svc.EnsureWallet(ctx, userID, "solana")
	require.NoError(t, err)
	_, err = f.svc.EnsureWallet(ctx, userID, "base")
	require.NoError(t, err)

	list, err := f.svc.ListWallets(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "base", list[0].Chain)
	assert.Equal(t, "solana", list[1].Chain)
}

func TestListLiquidationAddresses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.seedUser(t, "cust_1")

	w, err := f.svc.EnsureWallet(ctx, userID, "solana")
	require.NoError(t, err)
	_, err = f.svc.EnsureLiquidationAddress(ctx, userID, custody.DefaultCorridor(w.BridgeWalletID))
	require.NoError(t, err)

	list, err := f.svc.ListLiquidationAddresses(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "stellar", list[0].Chain)
}

func TestGetWalletDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.seedUser(t, "cust_1")

	_, err := f.svc.EnsureWallet(ctx, userID, "solana")
	require.NoError(t, err)

	detail, err := f.svc.GetWalletDetail(ctx, userID, "solana")
	require.NoError(t, err)
	require.Len(t, detail.Balances, 1)
	assert.Equal(t, "usdc", detail.Balances[0].Currency)

	t.Run("no wallet yet", func(t *testing.T) {
		other := f.seedUser(t, "cust_2")
		_, err := f.svc.GetWalletDetail(ctx, other, "solana")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
