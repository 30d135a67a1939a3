package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"vaultbridge/internal/bridge"
	"vaultbridge/internal/custody"
	"vaultbridge/internal/platform/middleware"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/httputil"
)

// CustodyService is the slice of the provisioner the transport needs.
type CustodyService interface {
	EnsureWallet(ctx context.Context, userID id.UserID, chain string) (custody.Wallet, error)
	GetWallet(ctx context.Context, userID id.UserID, chain string) (custody.Wallet, error)
	GetWalletDetail(ctx context.Context, userID id.UserID, chain string) (bridge.WalletDetail, error)
	ListWallets(ctx context.Context, userID id.UserID) ([]custody.Wallet, error)
	EnsureLiquidationAddress(ctx context.Context, userID id.UserID, spec custody.CorridorSpec) (custody.LiquidationAddress, error)
	GetLiquidationAddress(ctx context.Context, userID id.UserID, chain string) (custody.LiquidationAddress, error)
	ListLiquidationAddresses(ctx context.Context, userID id.UserID) ([]custody.LiquidationAddress, error)
}

// CustodyHandler serves the authenticated wallet and liquidation address
// routes.
type CustodyHandler struct {
	service CustodyService
	logger  *slog.Logger
}

func NewCustodyHandler(service CustodyService, logger *slog.Logger) *CustodyHandler {
	return &CustodyHandler{service: service, logger: logger}
}

type createWalletRequest struct {
	Chain string `json:"chain"`
}

type walletResponse struct {
	ID             string `json:"id"`
	BridgeWalletID string `json:"bridgeWalletId"`
	Chain          string `json:"chain"`
	Address        string `json:"address"`
}

func renderWallet(w custody.Wallet) walletResponse {
	return walletResponse{
		ID:             w.ID.String(),
		BridgeWalletID: w.BridgeWalletID,
		Chain:          w.Chain,
		Address:        w.Address,
	}
}

func (h *CustodyHandler) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	wallet, err := h.service.EnsureWallet(ctx, userID, req.Chain)
	if err != nil {
		h.logFailure(ctx, "wallet provisioning", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, renderWallet(wallet))
}

func (h *CustodyHandler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}
	chain := r.URL.Query().Get("chain")

	if r.URL.Query().Get("balance") == "true" {
		detail, err := h.service.GetWalletDetail(ctx, userID, chain)
		if err != nil {
			h.logFailure(ctx, "wallet balance read", userID, err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, detail)
		return
	}

	wallet, err := h.service.GetWallet(ctx, userID, chain)
	if err != nil {
		h.logFailure(ctx, "wallet read", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderWallet(wallet))
}

func (h *CustodyHandler) handleListWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	wallets, err := h.service.ListWallets(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "wallet listing", userID, err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, wallet := range wallets {
		out = append(out, renderWallet(wallet))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type addressResponse struct {
	ID                     string `json:"id"`
	BridgeAddressID        string `json:"bridgeAddressId"`
	Chain                  string `json:"chain"`
	Currency               string `json:"currency"`
	Address                string `json:"address"`
	BlockchainMemo         string `json:"blockchainMemo,omitempty"`
	DestinationPaymentRail string `json:"destinationPaymentRail"`
	DestinationCurrency    string `json:"destinationCurrency"`
	State                  string `json:"state"`
}

func renderAddress(a custody.LiquidationAddress) addressResponse {
	return addressResponse{
		ID:                     a.ID.String(),
		BridgeAddressID:        a.BridgeAddressID,
		Chain:                  a.Chain,
		Currency:               a.Currency,
		Address:                a.Address,
		BlockchainMemo:         a.BlockchainMemo,
		DestinationPaymentRail: a.DestinationPaymentRail,
		DestinationCurrency:    a.DestinationCurrency,
		State:                  a.State,
	}
}

// handleCreateAddress opens the stock corridor: funds arriving on stellar
// liquidate into the user's solana wallet, so that wallet must exist first.
func (h *CustodyHandler) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(ctx, userID, custody.DefaultWalletChain)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePreconditionFailed, "create a solana wallet before a liquidation address"))
			return
		}
		h.logFailure(ctx, "liquidation address provisioning", userID, err)
		httputil.WriteError(w, err)
		return
	}

	address, err := h.service.EnsureLiquidationAddress(ctx, userID, custody.DefaultCorridor(wallet.BridgeWalletID))
	if err != nil {
		h.logFailure(ctx, "liquidation address provisioning", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, renderAddress(address))
}

func (h *CustodyHandler) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	address, err := h.service.GetLiquidationAddress(ctx, userID, r.URL.Query().Get("chain"))
	if err != nil {
		h.logFailure(ctx, "liquidation address read", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderAddress(address))
}

func (h *CustodyHandler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := authedUserID(ctx, h.logger, w)
	if !ok {
		return
	}

	addresses, err := h.service.ListLiquidationAddresses(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "liquidation address listing", userID, err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, renderAddress(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *CustodyHandler) logFailure(ctx context.Context, operation string, userID id.UserID, err error) {
	switch dErrors.GetCode(err) {
	case dErrors.CodeNotFound, dErrors.CodePreconditionFailed:
		// expected client-state outcomes, no log
	case dErrors.CodeUnavailable:
		h.logger.WarnContext(ctx, operation+" hit provider outage",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
	default:
		h.logger.ErrorContext(ctx, operation+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
	}
}
