package card

import (
	"context"

	id "vaultbridge/pkg/domain"
)

// Store persists cards. Implementations return sentinel.ErrNotFound for
// missing rows and sentinel.ErrConflict when an insert hits the unique
// user_id constraint.
type Store interface {
	Insert(ctx context.Context, c Card) error
	FindByUser(ctx context.Context, userID id.UserID) (Card, error)
}
