package user

import (
	"context"

	"vaultbridge/internal/kyc"
	id "vaultbridge/pkg/domain"
)

// Store is the persistence contract for user records. Implementations are
// pure I/O and return pkg/platform/sentinel errors; policy lives in services.
type Store interface {
	// Create inserts a new user. Returns sentinel.ErrConflict when the email
	// is already taken.
	Create(ctx context.Context, u User) error

	// FindByID returns sentinel.ErrNotFound when absent.
	FindByID(ctx context.Context, userID id.UserID) (User, error)

	// FindByEmail returns sentinel.ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (User, error)

	// SaveKYCLink records the link reference issued during onboarding.
	SaveKYCLink(ctx context.Context, userID id.UserID, linkID, kycURL, tosURL string) error

	// SaveVerification overwrites the derived status fields and the provider
	// customer id. Last write wins; refresh is idempotent and re-derivable
	// from provider truth.
	SaveVerification(ctx context.Context, userID id.UserID, kycStatus kyc.KYCStatus, tosStatus kyc.TOSStatus, verified bool, customerID string) error
}
