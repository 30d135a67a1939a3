package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"vaultbridge/internal/auth"
	"vaultbridge/internal/platform/middleware"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/httputil"
)

// AuthService is the slice of the auth service the transport needs.
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (auth.Result, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (auth.Result, error)
}

// AuthHandler serves the public signup and signin endpoints.
type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid signup request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.SignUp(ctx, req)
	if err != nil {
		h.logSignUpFailure(ctx, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid signin request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.UserAgent = r.UserAgent()

	result, err := h.service.SignIn(ctx, req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.ErrorContext(ctx, "signin failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) logSignUpFailure(ctx context.Context, err error) {
	switch dErrors.GetCode(err) {
	case dErrors.CodeInvalidInput, dErrors.CodeConflict:
		h.logger.WarnContext(ctx, "signup rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, "signup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	}
}
