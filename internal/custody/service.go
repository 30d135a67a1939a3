package custody

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vaultbridge/internal/bridge"
	"vaultbridge/internal/events"
	"vaultbridge/internal/platform/metrics"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// Gateway is the slice of the provider client custody provisioning needs.
type Gateway interface {
	CreateWallet(ctx context.Context, customerID, chain string) (bridge.Wallet, error)
	GetWallet(ctx context.Context, customerID, walletID string) (bridge.WalletDetail, error)
	CreateLiquidationAddress(ctx context.Context, customerID string, req bridge.LiquidationAddressRequest) (bridge.LiquidationAddress, error)
}

// UserReader is the slice of the user store custody needs: provisioning is
// gated on the stored bridge customer id.
type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (user.User, error)
}

// Service provisions custody resources exactly once per (user, chain). The
// local row is checked before any provider call; a losing race on insert is
// resolved by re-reading the winner's row, so concurrent requests converge on
// one resource with at most one provider create apiece.
type Service struct {
	users     UserReader
	gateway   Gateway
	wallets   WalletStore
	addresses AddressStore
	events    events.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(users UserReader, gateway Gateway, wallets WalletStore, addresses AddressStore, emitter events.Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		gateway:   gateway,
		wallets:   wallets,
		addresses: addresses,
		events:    emitter,
		metrics:   m,
		logger:    logger,
	}
}

// EnsureWallet returns the user's wallet on chain, creating it on the
// provider only when no local row exists.
func (s *Service) EnsureWallet(ctx context.Context, userID id.UserID, chain string) (Wallet, error) {
	if chain == "" {
		chain = DefaultWalletChain
	}

	customerID, err := s.requireCustomer(ctx, userID)
	if err != nil {
		return Wallet{}, err
	}

	existing, err := s.wallets.FindByUserAndChain(ctx, userID, chain)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return Wallet{}, dErrors.Wrap(dErrors.CodeInternal, "lookup wallet", err)
	}

	created, err := s.gateway.CreateWallet(ctx, customerID, chain)
	if err != nil {
		return Wallet{}, dErrors.Wrap(dErrors.CodeUnavailable, "custody provider rejected wallet creation", err)
	}

	w := Wallet{
		ID:             id.NewWalletID(),
		UserID:         userID,
		BridgeWalletID: created.ID,
		Chain:          created.Chain,
		Address:        created.Address,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.wallets.Insert(ctx, w); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a provisioning race; the winner's row is authoritative.
			winner, findErr := s.wallets.FindByUserAndChain(ctx, userID, chain)
			if findErr != nil {
				return Wallet{}, dErrors.Wrap(dErrors.CodeInternal, "resolve wallet race", findErr)
			}
			s.logger.WarnContext(ctx, "wallet insert lost race, returning existing row",
				"user_id", userID.String(),
				"chain", chain,
				"orphaned_bridge_wallet_id", created.ID,
			)
			return winner, nil
		}
		return Wallet{}, dErrors.Wrap(dErrors.CodeInternal, "persist wallet", err)
	}

	s.metrics.IncWalletsCreated()
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeWalletCreated,
		UserID: userID.String(),
		Data:   map[string]string{"chain": w.Chain, "bridge_wallet_id": w.BridgeWalletID},
	})
	return w, nil
}

// GetWallet is a local read.
func (s *Service) GetWallet(ctx context.Context, userID id.UserID, chain string) (Wallet, error) {
	if chain == "" {
		chain = DefaultWalletChain
	}
	w, err := s.wallets.FindByUserAndChain(ctx, userID, chain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Wallet{}, dErrors.New(dErrors.CodeNotFound, "wallet not found")
		}
		return Wallet{}, dErrors.Wrap(dErrors.CodeInternal, "lookup wallet", err)
	}
	return w, nil
}

// ListWallets returns every wallet provisioned for the user, ordered by chain.
func (s *Service) ListWallets(ctx context.Context, userID id.UserID) ([]Wallet, error) {
	ws, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list wallets", err)
	}
	return ws, nil
}

// GetWalletDetail reads the wallet from the provider, including balances. The
// local row supplies the provider wallet id.
func (s *Service) GetWalletDetail(ctx context.Context, userID id.UserID, chain string) (bridge.WalletDetail, error) {
	w, err := s.GetWallet(ctx, userID, chain)
	if err != nil {
		return bridge.WalletDetail{}, err
	}
	customerID, err := s.requireCustomer(ctx, userID)
	if err != nil {
		return bridge.WalletDetail{}, err
	}
	detail, err := s.gateway.GetWallet(ctx, customerID, w.BridgeWalletID)
	if err != nil {
		return bridge.WalletDetail{}, dErrors.Wrap(dErrors.CodeUnavailable, "custody provider wallet read failed", err)
	}
	return detail, nil
}

// EnsureLiquidationAddress returns the user's liquidation address for the
// corridor's source chain, creating it on the provider only when no local row
// exists. The corridor's destination wallet must already be provisioned.
func (s *Service) EnsureLiquidationAddress(ctx context.Context, userID id.UserID, spec CorridorSpec) (LiquidationAddress, error) {
	customerID, err := s.requireCustomer(ctx, userID)
	if err != nil {
		return LiquidationAddress{}, err
	}
	if spec.BridgeWalletID == "" {
		return LiquidationAddress{}, dErrors.New(dErrors.CodePreconditionFailed, "destination wallet must be created before a liquidation address")
	}

	existing, err := s.addresses.FindByUserAndChain(ctx, userID, spec.Chain)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return LiquidationAddress{}, dErrors.Wrap(dErrors.CodeInternal, "lookup liquidation address", err)
	}

	created, err := s.gateway.CreateLiquidationAddress(ctx, customerID, bridge.LiquidationAddressRequest{
		Chain:                  spec.Chain,
		Currency:               spec.Currency,
		DestinationPaymentRail: spec.DestinationPaymentRail,
		BridgeWalletID:         spec.BridgeWalletID,
		DestinationCurrency:    spec.DestinationCurrency,
	})
	if err != nil {
		return LiquidationAddress{}, dErrors.Wrap(dErrors.CodeUnavailable, "custody provider rejected liquidation address creation", err)
	}

	a := LiquidationAddress{
		ID:                     id.NewAddressID(),
		UserID:                 userID,
		BridgeAddressID:        created.ID,
		Chain:                  created.Chain,
		Currency:               created.Currency,
		Address:                created.Address,
		BlockchainMemo:         created.BlockchainMemo,
		DestinationPaymentRail: created.DestinationPaymentRail,
		DestinationCurrency:    created.DestinationCurrency,
		State:                  created.State,
		CreatedAt:              time.Now().UTC(),
	}
	if err := s.addresses.Insert(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			winner, findErr := s.addresses.FindByUserAndChain(ctx, userID, spec.Chain)
			if findErr != nil {
				return LiquidationAddress{}, dErrors.Wrap(dErrors.CodeInternal, "resolve liquidation address race", findErr)
			}
			s.logger.WarnContext(ctx, "liquidation address insert lost race, returning existing row",
				"user_id", userID.String(),
				"chain", spec.Chain,
				"orphaned_bridge_address_id", created.ID,
			)
			return winner, nil
		}
		return LiquidationAddress{}, dErrors.Wrap(dErrors.CodeInternal, "persist liquidation address", err)
	}

	s.metrics.IncLiquidationCreated()
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeLiquidationCreated,
		UserID: userID.String(),
		Data:   map[string]string{"chain": a.Chain, "destination_payment_rail": a.DestinationPaymentRail},
	})
	return a, nil
}

// GetLiquidationAddress is a local read keyed by source chain.
func (s *Service) GetLiquidationAddress(ctx context.Context, userID id.UserID, chain string) (LiquidationAddress, error) {
	if chain == "" {
		chain = DefaultSourceChain
	}
	a, err := s.addresses.FindByUserAndChain(ctx, userID, chain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LiquidationAddress{}, dErrors.New(dErrors.CodeNotFound, "liquidation address not found")
		}
		return LiquidationAddress{}, dErrors.Wrap(dErrors.CodeInternal, "lookup liquidation address", err)
	}
	return a, nil
}

// ListLiquidationAddresses returns every liquidation address provisioned for
// the user, ordered by source chain.
func (s *Service) ListLiquidationAddresses(ctx context.Context, userID id.UserID) ([]LiquidationAddress, error) {
	as, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list liquidation addresses", err)
	}
	return as, nil
}

// requireCustomer gates provisioning on a verified identity: the bridge
// customer id only exists once a status refresh has seen one.
func (s *Service) requireCustomer(ctx context.Context, userID id.UserID) (string, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "lookup user", err)
	}
	if u.BridgeCustomerID == "" {
		return "", dErrors.New(dErrors.CodePreconditionFailed, "identity verification incomplete, no custody customer")
	}
	return u.BridgeCustomerID, nil
}
