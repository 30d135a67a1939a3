package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaultbridge/internal/card"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists cards in PostgreSQL. The unique user_id constraint
// enforces one card per user.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, c card.Card) error {
	query := `
		INSERT INTO cards (id, user_id, number, cvv, expires_at, balance, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.UserID), c.Number, c.CVV, c.ExpiresAt, c.Balance, c.Currency, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (card.Card, error) {
	query := `
		SELECT id, user_id, number, cvv, expires_at, balance, currency, created_at
		FROM cards
		WHERE user_id = $1
	`
	var (
		c      card.Card
		rawID  uuid.UUID
		userUU uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&rawID, &userUU, &c.Number, &c.CVV, &c.ExpiresAt, &c.Balance, &c.Currency, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return card.Card{}, sentinel.ErrNotFound
		}
		return card.Card{}, fmt.Errorf("scan card: %w", err)
	}
	c.ID = id.CardID(rawID)
	c.UserID = id.UserID(userUU)
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
