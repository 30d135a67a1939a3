// Package user owns the local identity record and reconciles it against
// provider verification state.
package user

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"vaultbridge/internal/events"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/platform/metrics"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// StatusReader is the slice of the KYC coordinator the reconciler needs.
type StatusReader interface {
	GetStatus(ctx context.Context, linkID string) (kyc.Status, error)
}

// Service is the onboarding state reconciler: it merges freshly fetched
// provider state into the local user record and derives the feature gate.
type Service struct {
	store   Store
	kyc     StatusReader
	events  events.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, statusReader StatusReader, emitter events.Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		kyc:     statusReader,
		events:  emitter,
		metrics: m,
		logger:  logger,
	}
}

// Dashboard returns the user summary plus the derived full-feature gate.
func (s *Service) Dashboard(ctx context.Context, userID id.UserID) (Dashboard, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Dashboard{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return Dashboard{}, dErrors.Wrap(dErrors.CodeInternal, "load user", err)
	}
	return Dashboard{
		User:                 Summarize(u),
		CanAccessFullFeature: kyc.Verified(u.KYCStatus, u.TOSStatus),
	}, nil
}

// RefreshStatus pulls current verification state from the provider,
// recomputes isVerified as the KYC/TOS conjunction, and persists the result.
// It has no side effect beyond overwriting derived fields, so callers can
// retry it at any time.
func (s *Service) RefreshStatus(ctx context.Context, userID id.UserID) (RefreshResult, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncStatusRefresh("user_not_found")
			return RefreshResult{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeInternal, "load user", err)
	}

	if u.KYCLinkID == "" {
		s.metrics.IncStatusRefresh("no_link")
		return RefreshResult{}, dErrors.New(dErrors.CodeNotFound, "KYC link not found for user")
	}

	status, err := s.kyc.GetStatus(ctx, u.KYCLinkID)
	if err != nil {
		s.metrics.IncStatusRefresh("provider_error")
		s.logger.ErrorContext(ctx, "kyc status refresh failed",
			"user_id", userID.String(),
			"kyc_link_id", u.KYCLinkID,
			"error", err,
		)
		// Recoverable: local state is untouched and the caller can retry.
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeUnavailable, "failed to refresh KYC status", err)
	}

	verified := kyc.Verified(status.KYCStatus, status.TOSStatus)
	if err := s.store.SaveVerification(ctx, userID, status.KYCStatus, status.TOSStatus, verified, status.CustomerID); err != nil {
		return RefreshResult{}, dErrors.Wrap(dErrors.CodeInternal, "persist verification state", err)
	}

	s.metrics.IncStatusRefresh("ok")
	s.events.Emit(ctx, events.Event{
		Type:   events.TypeStatusRefreshed,
		UserID: userID.String(),
		Data: map[string]string{
			"kyc_status":  string(status.KYCStatus),
			"tos_status":  string(status.TOSStatus),
			"is_verified": strconv.FormatBool(verified),
		},
	})
	return RefreshResult{
		KYCStatus:  status.KYCStatus,
		TOSStatus:  status.TOSStatus,
		IsVerified: verified,
	}, nil
}
