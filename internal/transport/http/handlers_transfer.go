package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultbridge/internal/platform/middleware"
	"vaultbridge/internal/transfer"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/httputil"
)

// TransferService is the slice of the transfer service the transport needs.
type TransferService interface {
	Create(ctx context.Context, userID id.UserID, req transfer.Request) (json.RawMessage, error)
	Get(ctx context.Context, transferID string) (json.RawMessage, error)
}

// TransferHandler serves the authenticated transfer passthrough routes.
type TransferHandler struct {
	service TransferService
	logger  *slog.Logger
}

func NewTransferHandler(service TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{service: service, logger: logger}
}

func (h *TransferHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	var req transfer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	out, err := h.service.Create(ctx, userID, req)
	if err != nil {
		h.logFailure(ctx, "transfer creation", userID, err)
		httputil.WriteError(w, err)
		return
	}
	writeRaw(w, http.StatusCreated, out)
}

func (h *TransferHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	out, err := h.service.Get(ctx, chi.URLParam(r, "transferID"))
	if err != nil {
		h.logFailure(ctx, "transfer read", userID, err)
		httputil.WriteError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, out)
}

// logFailure includes the account email so support can chase a failed money
// movement without a separate user lookup.
func (h *TransferHandler) logFailure(ctx context.Context, operation string, userID id.UserID, err error) {
	switch dErrors.GetCode(err) {
	case dErrors.CodeInvalidInput, dErrors.CodeNotFound, dErrors.CodePreconditionFailed:
		// client-state outcomes
	case dErrors.CodeUnavailable:
		h.logger.WarnContext(ctx, operation+" hit provider outage",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(),
			"email", middleware.GetEmail(ctx),
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, operation+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(),
			"email", middleware.GetEmail(ctx),
			"error", err,
		)
	}
}

// writeRaw forwards an untyped provider payload as-is.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
