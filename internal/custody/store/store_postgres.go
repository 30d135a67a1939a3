package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaultbridge/internal/custody"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresWalletStore persists wallet mirrors in PostgreSQL. The
// (user_id, chain) unique constraint is the create-once guarantee; races
// surface as sentinel.ErrConflict for the service to resolve.
type PostgresWalletStore struct {
	db *sql.DB
}

func NewPostgresWalletStore(db *sql.DB) *PostgresWalletStore {
	return &PostgresWalletStore{db: db}
}

func (s *PostgresWalletStore) Insert(ctx context.Context, w custody.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, bridge_wallet_id, chain, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(w.ID), uuid.UUID(w.UserID), w.BridgeWalletID, w.Chain, w.Address, w.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (s *PostgresWalletStore) FindByUserAndChain(ctx context.Context, userID id.UserID, chain string) (custody.Wallet, error) {
	query := selectWallet + ` WHERE user_id = $1 AND chain = $2`
	return scanWallet(s.db.QueryRowContext(ctx, query, uuid.UUID(userID), chain))
}

func (s *PostgresWalletStore) ListByUser(ctx context.Context, userID id.UserID) ([]custody.Wallet, error) {
	query := selectWallet + ` WHERE user_id = $1 ORDER BY chain`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var out []custody.Wallet
	for rows.Next() {
		w, err := scanWalletRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return out, nil
}

const selectWallet = `
	SELECT id, user_id, bridge_wallet_id, chain, address, created_at
	FROM wallets
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row *sql.Row) (custody.Wallet, error) {
	w, err := scanWalletRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return custody.Wallet{}, sentinel.ErrNotFound
	}
	return w, err
}

func scanWalletRow(row rowScanner) (custody.Wallet, error) {
	var (
		w      custody.Wallet
		rawID  uuid.UUID
		userID uuid.UUID
	)
	err := row.Scan(&rawID, &userID, &w.BridgeWalletID, &w.Chain, &w.Address, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return custody.Wallet{}, err
		}
		return custody.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	w.ID = id.WalletID(rawID)
	w.UserID = id.UserID(userID)
	return w, nil
}

// PostgresAddressStore persists liquidation address mirrors in PostgreSQL.
type PostgresAddressStore struct {
	db *sql.DB
}

func NewPostgresAddressStore(db *sql.DB) *PostgresAddressStore {
	return &PostgresAddressStore{db: db}
}

func (s *PostgresAddressStore) Insert(ctx context.Context, a custody.LiquidationAddress) error {
	query := `
		INSERT INTO liquidation_addresses (
			id, user_id, bridge_address_id, chain, currency, address,
			blockchain_memo, destination_payment_rail, destination_currency, state, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.UserID), a.BridgeAddressID, a.Chain, a.Currency, a.Address,
		a.BlockchainMemo, a.DestinationPaymentRail, a.DestinationCurrency, a.State, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert liquidation address: %w", err)
	}
	return nil
}

func (s *PostgresAddressStore) FindByUserAndChain(ctx context.Context, userID id.UserID, chain string) (custody.LiquidationAddress, error) {
	query := selectAddress + ` WHERE user_id = $1 AND chain = $2`
	a, err := scanAddressRow(s.db.QueryRowContext(ctx, query, uuid.UUID(userID), chain))
	if errors.Is(err, sql.ErrNoRows) {
		return custody.LiquidationAddress{}, sentinel.ErrNotFound
	}
	return a, err
}

func (s *PostgresAddressStore) ListByUser(ctx context.Context, userID id.UserID) ([]custody.LiquidationAddress, error) {
	query := selectAddress + ` WHERE user_id = $1 ORDER BY chain`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list liquidation addresses: %w", err)
	}
	defer rows.Close()

	var out []custody.LiquidationAddress
	for rows.Next() {
		a, err := scanAddressRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list liquidation addresses: %w", err)
	}
	return out, nil
}

const selectAddress = `
	SELECT id, user_id, bridge_address_id, chain, currency, address,
	       blockchain_memo, destination_payment_rail, destination_currency, state, created_at
	FROM liquidation_addresses
`

func scanAddressRow(row rowScanner) (custody.LiquidationAddress, error) {
	var (
		a      custody.LiquidationAddress
		rawID  uuid.UUID
		userID uuid.UUID
	)
	err := row.Scan(&rawID, &userID, &a.BridgeAddressID, &a.Chain, &a.Currency, &a.Address,
		&a.BlockchainMemo, &a.DestinationPaymentRail, &a.DestinationCurrency, &a.State, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return custody.LiquidationAddress{}, err
		}
		return custody.LiquidationAddress{}, fmt.Errorf("scan liquidation address: %w", err)
	}
	a.ID = id.AddressID(rawID)
	a.UserID = id.UserID(userID)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
