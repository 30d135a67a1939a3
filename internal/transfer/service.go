// Package transfer proxies provider transfers. The provider is the system of
// record; nothing is persisted locally and payloads pass through untyped
// since source/destination schemas vary by rail.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"vaultbridge/internal/bridge"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// Gateway is the slice of the provider client transfers need.
type Gateway interface {
	CreateTransfer(ctx context.Context, req bridge.TransferRequest) (json.RawMessage, error)
	GetTransfer(ctx context.Context, transferID string) (json.RawMessage, error)
}

// UserReader resolves the acting user's provider customer id.
type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (user.User, error)
}

// Request is the caller-facing transfer creation payload. OnBehalfOf is
// filled server-side from the authenticated user.
type Request struct {
	Amount      string          `json:"amount"`
	Source      json.RawMessage `json:"source"`
	Destination json.RawMessage `json:"destination"`
}

// Service creates and reads provider transfers on behalf of a user.
type Service struct {
	gateway Gateway
	users   UserReader
	logger  *slog.Logger
}

func NewService(gateway Gateway, users UserReader, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, users: users, logger: logger}
}

// Create submits a transfer for the user's provider customer.
func (s *Service) Create(ctx context.Context, userID id.UserID, req Request) (json.RawMessage, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	customerID, err := s.customerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out, err := s.gateway.CreateTransfer(ctx, bridge.TransferRequest{
		Amount:      req.Amount,
		OnBehalfOf:  customerID,
		Source:      req.Source,
		Destination: req.Destination,
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "custody provider rejected transfer", err)
	}
	return out, nil
}

// Get reads a transfer by provider id.
func (s *Service) Get(ctx context.Context, transferID string) (json.RawMessage, error) {
	if strings.TrimSpace(transferID) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transfer id is required")
	}
	out, err := s.gateway.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "custody provider transfer read failed", err)
	}
	return out, nil
}

func (s *Service) customerID(ctx context.Context, userID id.UserID) (string, error) {
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

func validate(req Request) error {
	if strings.TrimSpace(req.Amount) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	if len(req.Source) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "source is required")
	}
	if len(req.Destination) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "destination is required")
	}
	return nil
}
