// Package custody provisions provider-side custody resources (wallets and
// liquidation addresses) and mirrors them locally. Provisioning is
// create-once per (user, chain): the local row is the idempotency record.
package custody

import (
	"time"

	id "vaultbridge/pkg/domain"
)

// Wallet is the local mirror of a provider custody wallet.
type Wallet struct {
	ID             id.WalletID
	UserID         id.UserID
	BridgeWalletID string
	Chain          string
	Address        string
	CreatedAt      time.Time
}

// LiquidationAddress is the local mirror of a provider auto-conversion
// address. Chain is the source chain funds arrive on; the destination fields
// describe where converted funds land.
type LiquidationAddress struct {
	ID                     id.AddressID
	UserID                 id.UserID
	BridgeAddressID        string
	Chain                  string
	Currency               string
	Address                string
	BlockchainMemo         string
	DestinationPaymentRail string
	DestinationCurrency    string
	State                  string
	CreatedAt              time.Time
}

// CorridorSpec describes the conversion corridor a liquidation address opens:
// Currency arriving on Chain is converted to DestinationCurrency and forwarded
// to the wallet behind DestinationPaymentRail.
type CorridorSpec struct {
	Chain                  string
	Currency               string
	DestinationPaymentRail string
	DestinationCurrency    string
	BridgeWalletID         string
}

// Default corridor: USDC arriving on stellar liquidates into the user's
// solana custody wallet.
const (
	DefaultWalletChain    = "solana"
	DefaultSourceChain    = "stellar"
	DefaultSourceCurrency = "usdc"
)

// DefaultCorridor builds the stock stellar to solana corridor for a wallet.
func DefaultCorridor(bridgeWalletID string) CorridorSpec {
	return CorridorSpec{
		Chain:                  DefaultSourceChain,
		Currency:               DefaultSourceCurrency,
		DestinationPaymentRail: DefaultWalletChain,
		DestinationCurrency:    DefaultSourceCurrency,
		BridgeWalletID:         bridgeWalletID,
	}
}
