// Package bridge is the typed gateway to the custody provider. It owns
// idempotency-key generation, error normalization, and nothing else: retry
// policy belongs to callers, and no caller currently retries.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vaultbridge/internal/platform/config"
	"vaultbridge/internal/platform/metrics"
	"vaultbridge/pkg/platform/circuit"
	"vaultbridge/pkg/platform/sentinel"
)

// Client issues idempotent HTTP calls to the custody provider. Construct one
// per process; it is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	breaker    *circuit.Breaker
}

// New builds a Client from injected configuration. There is no package-level
// provider state.
func New(cfg config.Bridge, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("vaultbridge/internal/bridge"),
		breaker:    circuit.New("bridge", 5, 30*time.Second),
	}
}

// CreateCustomer registers an individual customer with the provider.
func (c *Client) CreateCustomer(ctx context.Context, fullName, email string) (Customer, error) {
	var out Customer
	err := c.do(ctx, "create_customer", http.MethodPost, "/customers", map[string]string{
		"full_name": fullName,
		"email":     email,
		"type":      "individual",
	}, &out)
	return out, err
}

// CreateKYCLink requests a verification link. A duplicate_record rejection is
// not an error: the embedded existing link comes back tagged LinkAlreadyExists
// in the same shape as a fresh creation, so callers never branch on provider
// error codes.
func (c *Client) CreateKYCLink(ctx context.Context, fullName, email string) (KYCLinkResult, error) {
	var link KYCLink
	err := c.do(ctx, "create_kyc_link", http.MethodPost, "/kyc_links", map[string]string{
		"full_name": fullName,
		"email":     email,
		"type":      "individual",
	}, &link)
	if err == nil {
		return KYCLinkResult{Outcome: LinkCreated, Link: link}, nil
	}

	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsDuplicate() {
		return KYCLinkResult{}, err
	}

	var dup duplicateRecordBody
	if jsonErr := json.Unmarshal(apiErr.Body, &dup); jsonErr != nil || dup.ExistingKYCLink.ID == "" {
		// Duplicate signal without a usable embedded link is still a failure.
		return KYCLinkResult{}, err
	}
	return KYCLinkResult{Outcome: LinkAlreadyExists, Link: dup.ExistingKYCLink}, nil
}

// GetKYCLink fetches the current verification state for a link.
func (c *Client) GetKYCLink(ctx context.Context, linkID string) (KYCLink, error) {
	var out KYCLink
	err := c.do(ctx, "get_kyc_link", http.MethodGet, "/kyc_links/"+url.PathEscape(linkID), nil, &out)
	return out, err
}

// CreateWallet provisions a custody wallet on the given chain.
func (c *Client) CreateWallet(ctx context.Context, customerID, chain string) (Wallet, error) {
	var out Wallet
	path := "/customers/" + url.PathEscape(customerID) + "/wallets"
	err := c.do(ctx, "create_wallet", http.MethodPost, path, map[string]string{"chain": chain}, &out)
	return out, err
}

// GetWallet reads a wallet including its balances.
func (c *Client) GetWallet(ctx context.Context, customerID, walletID string) (WalletDetail, error) {
	var out WalletDetail
	path := "/customers/" + url.PathEscape(customerID) + "/wallets/" + url.PathEscape(walletID)
	err := c.do(ctx, "get_wallet", http.MethodGet, path, nil, &out)
	return out, err
}

// CreateLiquidationAddress provisions an auto-conversion address for a
// customer.
func (c *Client) CreateLiquidationAddress(ctx context.Context, customerID string, req LiquidationAddressRequest) (LiquidationAddress, error) {
	var out LiquidationAddress
	path := "/customers/" + url.PathEscape(customerID) + "/liquidation_addresses"
	err := c.do(ctx, "create_liquidation_address", http.MethodPost, path, req, &out)
	return out, err
}

// CreateTransfer submits a transfer. The response schema varies by rail and
// passes through untouched.
func (c *Client) CreateTransfer(ctx context.Context, req TransferRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, "create_transfer", http.MethodPost, "/transfers", req, &out)
	return out, err
}

// GetTransfer fetches a transfer by provider id.
func (c *Client) GetTransfer(ctx context.Context, transferID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, "get_transfer", http.MethodGet, "/transfers/"+url.PathEscape(transferID), nil, &out)
	return out, err
}

// do performs one provider call. Mutating calls get a fresh Idempotency-Key
// per invocation; the gateway never reuses a key, so a caller retry is a new
// logical attempt from the provider's point of view.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "bridge."+operation)
	defer span.End()

	if !c.breaker.Allow() {
		c.metrics.ObserveBridgeCall(operation, "circuit_open", 0)
		return fmt.Errorf("bridge %s: %w", operation, sentinel.ErrUnavailable)
	}

	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBridgeCall(operation, "transport_error", time.Since(start))
		span.RecordError(err)
		if c.breaker.RecordFailure() {
			c.logger.WarnContext(ctx, "bridge circuit opened", "operation", operation)
		}
		c.logger.ErrorContext(ctx, "bridge transport failure",
			"operation", operation,
			"error", err,
		)
		return fmt.Errorf("bridge %s: %w", operation, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveBridgeCall(operation, "transport_error", time.Since(start))
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Body: payload}
		var envelope struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(payload, &envelope) == nil {
			apiErr.Code = envelope.Code
		}
		span.SetAttributes(attribute.String("bridge.error_code", apiErr.Code))
		c.metrics.ObserveBridgeCall(operation, "provider_error", time.Since(start))
		// 4xx is a provider decision about this request, not an outage; only
		// 5xx counts against the circuit.
		if resp.StatusCode >= 500 {
			if c.breaker.RecordFailure() {
				c.logger.WarnContext(ctx, "bridge circuit opened", "operation", operation)
			}
		} else {
			c.breaker.RecordSuccess()
		}
		c.logger.ErrorContext(ctx, "bridge API error",
			"operation", operation,
			"status", resp.StatusCode,
			"code", apiErr.Code,
			"body", string(payload),
		)
		return apiErr
	}

	c.breaker.RecordSuccess()
	c.metrics.ObserveBridgeCall(operation, "ok", time.Since(start))

	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
