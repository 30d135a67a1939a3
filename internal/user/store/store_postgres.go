package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaultbridge/internal/kyc"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	"vaultbridge/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code raised when an insert hits a
// unique constraint.
const uniqueViolation = "23505"

// PostgresStore persists user records in PostgreSQL.
// This store is pure I/O; all verification policy belongs in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, kyc_status, tos_status, is_verified, created_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID), u.FullName, u.Email, u.PasswordHash,
		string(u.KYCStatus), string(u.TOSStatus), u.IsVerified, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (user.User, error) {
	query := selectUser + ` WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	query := selectUser + ` WHERE email = lower($1)`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) SaveKYCLink(ctx context.Context, userID id.UserID, linkID, kycURL, tosURL string) error {
	query := `
		UPDATE users
		SET kyc_link_id = $2, kyc_link_url = $3, tos_link_url = $4
		WHERE id = $1
	`
	return s.exec(ctx, query, uuid.UUID(userID), linkID, kycURL, tosURL)
}

func (s *PostgresStore) SaveVerification(ctx context.Context, userID id.UserID, kycStatus kyc.KYCStatus, tosStatus kyc.TOSStatus, verified bool, customerID string) error {
	query := `
		UPDATE users
		SET kyc_status = $2, tos_status = $3, is_verified = $4, bridge_customer_id = $5
		WHERE id = $1
	`
	return s.exec(ctx, query, uuid.UUID(userID), string(kycStatus), string(tosStatus), verified, customerID)
}

const selectUser = `
	SELECT id, full_name, email, password_hash, bridge_customer_id,
	       kyc_link_id, kyc_link_url, tos_link_url,
	       kyc_status, tos_status, is_verified, created_at
	FROM users
`

func (s *PostgresStore) scanOne(row *sql.Row) (user.User, error) {
	var (
		u     user.User
		rawID uuid.UUID
		kycSt string
		tosSt string
	)
	err := row.Scan(&rawID, &u.FullName, &u.Email, &u.PasswordHash, &u.BridgeCustomerID,
		&u.KYCLinkID, &u.KYCLinkURL, &u.TOSLinkURL,
		&kycSt, &tosSt, &u.IsVerified, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, sentinel.ErrNotFound
		}
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.KYCStatus = kyc.KYCStatus(kycSt)
	u.TOSStatus = kyc.TOSStatus(tosSt)
	return u, nil
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
