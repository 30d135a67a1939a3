package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"vaultbridge/internal/platform/middleware"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/httputil"
)

// UserService is the slice of the onboarding reconciler the transport needs.
type UserService interface {
	Dashboard(ctx context.Context, userID id.UserID) (user.Dashboard, error)
	RefreshStatus(ctx context.Context, userID id.UserID) (user.RefreshResult, error)
}

// UserHandler serves the authenticated dashboard and status refresh routes.
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

func (h *UserHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(ctx, userID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "dashboard lookup failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *UserHandler) handleRefreshKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	result, err := h.service.RefreshStatus(ctx, userID)
	if err != nil {
		switch dErrors.GetCode(err) {
		case dErrors.CodeNotFound:
			// no stored link yet; the caller has to complete signup bootstrap first
		case dErrors.CodeUnavailable:
			h.logger.WarnContext(ctx, "status refresh hit provider outage",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID.String(),
				"error", err,
			)
		default:
			h.logger.ErrorContext(ctx, "status refresh failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// authedUserID pulls the authenticated user id out of the context. RequireAuth
// guarantees presence; a miss is a wiring bug, not a client error.
func authedUserID(ctx context.Context, logger *slog.Logger, w http.ResponseWriter) (id.UserID, bool) {
	raw := middleware.GetUserID(ctx)
	userID, err := id.ParseUserID(raw)
	if err != nil {
		logger.ErrorContext(ctx, "user id missing or malformed despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
}
