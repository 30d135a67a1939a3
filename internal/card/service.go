package card

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vaultbridge/internal/events"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// Service issues and reads virtual cards.
type Service struct {
	store  Store
	events events.Emitter
	logger *slog.Logger
}

func NewService(store Store, emitter events.Emitter, logger *slog.Logger) *Service {
	return &Service{store: store, events: emitter, logger: logger}
}

// Issue creates the user's card if none exists. A repeat call, or a lost
// insert race, returns the existing card.
func (s *Service) Issue(ctx context.Context, userID id.UserID) (Card, error) {
	existing, err := s.store.FindByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return Card{}, dErrors.Wrap(dErrors.CodeInternal, "lookup card", err)
	}

	c, err := s.mint(userID)
	if err != nil {
		return Card{}, dErrors.Wrap(dErrors.CodeInternal, "mint card", err)
	}

	if err := s.store.Insert(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			winner, findErr := s.store.FindByUser(ctx, userID)
			if findErr != nil {
				return Card{}, dErrors.Wrap(dErrors.CodeInternal, "resolve card race", findErr)
			}
			s.logger.WarnContext(ctx, "card insert lost race, returning existing card",
				"user_id", userID.String(),
			)
			return winner, nil
		}
		return Card{}, dErrors.Wrap(dErrors.CodeInternal, "persist card", err)
	}

	s.events.Emit(ctx, events.Event{
		Type:   events.TypeCardIssued,
		UserID: userID.String(),
		Data:   map[string]string{"card_id": c.ID.String()},
	})
	return c, nil
}

// Get is a local read.
func (s *Service) Get(ctx context.Context, userID id.UserID) (Card, error) {
	c, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Card{}, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return Card{}, dErrors.Wrap(dErrors.CodeInternal, "lookup card", err)
	}
	return c, nil
}

func (s *Service) mint(userID id.UserID) (Card, error) {
	now := time.Now().UTC()

	number, err := generateNumber()
	if err != nil {
		return Card{}, err
	}
	cvv, err := generateCVV()
	if err != nil {
		return Card{}, err
	}
	expiry, err := generateExpiry(now)
	if err != nil {
		return Card{}, err
	}
	balance, err := generateBalance()
	if err != nil {
		return Card{}, err
	}

	return Card{
		ID:        id.NewCardID(),
		UserID:    userID,
		Number:    number,
		CVV:       cvv,
		ExpiresAt: expiry,
		Balance:   balance,
		Currency:  "usdc",
		CreatedAt: now,
	}, nil
}
