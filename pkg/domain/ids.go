// Package domain holds identifier types shared across features. IDs are
// distinct types over uuid.UUID so a wallet id can never be passed where a
// user id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "vaultbridge/pkg/domain-errors"
)

type (
	// UserID identifies a local user record.
	UserID uuid.UUID

	// WalletID identifies a local wallet record.
	WalletID uuid.UUID

	// CardID identifies a virtual card record.
	CardID uuid.UUID

	// AddressID identifies a local liquidation address record.
	AddressID uuid.UUID
)

// NewUserID generates a fresh user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewWalletID generates a fresh wallet id.
func NewWalletID() WalletID { return WalletID(uuid.New()) }

// NewCardID generates a fresh card id.
func NewCardID() CardID { return CardID(uuid.New()) }

// NewAddressID generates a fresh liquidation address id.
func NewAddressID() AddressID { return AddressID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id WalletID) String() string  { return uuid.UUID(id).String() }
func (id CardID) String() string    { return uuid.UUID(id).String() }
func (id AddressID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// ParseUserID validates an incoming user id at the trust boundary. IDs must be
// valid, non-empty, non-nil UUIDs.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return parsed, nil
}
