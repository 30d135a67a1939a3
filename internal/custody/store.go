package custody

import (
	"context"

	id "vaultbridge/pkg/domain"
)

// WalletStore persists local wallet mirrors. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when an
// insert hits the (user_id, chain) unique constraint.
type WalletStore interface {
	Insert(ctx context.Context, w Wallet) error
	FindByUserAndChain(ctx context.Context, userID id.UserID, chain string) (Wallet, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]Wallet, error)
}

// AddressStore persists local liquidation address mirrors with the same
// sentinel contract keyed on (user_id, chain).
type AddressStore interface {
	Insert(ctx context.Context, a LiquidationAddress) error
	FindByUserAndChain(ctx context.Context, userID id.UserID, chain string) (LiquidationAddress, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]LiquidationAddress, error)
}
