package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"vaultbridge/internal/card"
	"vaultbridge/internal/platform/middleware"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/httputil"
)

// CardService is the slice of the card service the transport needs.
type CardService interface {
	Issue(ctx context.Context, userID id.UserID) (card.Card, error)
	Get(ctx context.Context, userID id.UserID) (card.Card, error)
}

// CardHandler serves the authenticated virtual card routes.
type CardHandler struct {
	service CardService
	logger  *slog.Logger
}

func NewCardHandler(service CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{service: service, logger: logger}
}

func (h *CardHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	c, err := h.service.Issue(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "card issuance failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, card.Render(c))
}

func (h *CardHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	c, err := h.service.Get(ctx, userID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "card read failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, card.Render(c))
}
