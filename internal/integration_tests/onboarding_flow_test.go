// Package integrationtests exercises the full onboarding flow end to end:
// real router, real services, in-memory stores, fake custody provider.
package integrationtests

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultbridge/internal/auth"
	"vaultbridge/internal/bridge"
	"vaultbridge/internal/card"
	cardstore "vaultbridge/internal/card/store"
	"vaultbridge/internal/custody"
	custodystore "vaultbridge/internal/custody/store"
	"vaultbridge/internal/events"
	jwttoken "vaultbridge/internal/jwt_token"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/platform/config"
	"vaultbridge/internal/transfer"
	httptransport "vaultbridge/internal/transport/http"
	"vaultbridge/internal/user"
	userstore "vaultbridge/internal/user/store"
	"vaultbridge/pkg/testutil"
)

// fakeBridge is a minimal stand-in for the custody provider API.
type fakeBridge struct {
	mu          sync.Mutex
	kycStatus   string
	tosStatus   string
	customerID  string
	walletCalls int
}

func (f *fakeBridge) approve() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kycStatus = "approved"
	f.tosStatus = "approved"
	f.customerID = "cust_1"
}

func (f *fakeBridge) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /kyc_links", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{
			"id":         "kyl_1",
			"kyc_link":   "https://verify.example/kyc/1",
			"tos_link":   "https://verify.example/tos/1",
			"kyc_status": "not_started",
			"tos_status": "pending",
		})
	})
	mux.HandleFunc("GET /kyc_links/kyl_1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{
			"id":          "kyl_1",
			"kyc_status":  f.kycStatus,
			"tos_status":  f.tosStatus,
			"customer_id": f.customerID,
		})
	})
	mux.HandleFunc("POST /customers/cust_1/wallets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.walletCalls++
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{
			"id":      "bw_1",
			"chain":   "solana",
			"address": "SoLANAaddr",
		})
	})
	mux.HandleFunc("POST /customers/cust_1/liquidation_addresses", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusCreated, map[string]string{
			"id":                       "la_1",
			"chain":                    req["chain"],
			"currency":                 req["currency"],
			"address":                  "GSTELLAR",
			"destination_payment_rail": req["destination_payment_rail"],
			"destination_currency":     req["destination_currency"],
			"state":                    "active",
		})
	})
	mux.HandleFunc("POST /transfers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"id": "tr_1", "state": "awaiting_funds"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newStack(t *testing.T) (http.Handler, *fakeBridge) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	provider := &fakeBridge{kycStatus: "not_started", tosStatus: "pending"}
	providerServer := httptest.NewServer(provider.handler())
	t.Cleanup(providerServer.Close)

	gateway := bridge.New(config.Bridge{
		BaseURL: providerServer.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, logger, nil)

	users := userstore.NewMemoryStore()
	jwtService := jwttoken.NewJWTService("integration-secret", "vaultbridge", time.Hour)
	kycService := kyc.NewService(gateway, nil, 0, logger)
	userService := user.NewService(users, kycService, events.NopEmitter{}, nil, logger)
	authService := auth.NewService(users, kycService, jwtService, events.NopEmitter{}, nil, logger, 4)
	custodyService := custody.NewService(users, gateway,
		custodystore.NewMemoryWalletStore(), custodystore.NewMemoryAddressStore(),
		events.NopEmitter{}, nil, logger)
	cardService := card.NewService(cardstore.NewMemoryStore(), events.NopEmitter{}, logger)
	transferService := transfer.NewService(gateway, users, logger)

	rt := httptransport.NewRouter(
		logger, nil,
		jwttoken.NewMiddlewareAdapter(jwtService),
		httptransport.HealthFunc(func(*http.Request) bool { return true }),
		httptransport.NewAuthHandler(authService, logger),
		httptransport.NewUserHandler(userService, logger),
		httptransport.NewCustodyHandler(custodyService, logger),
		httptransport.NewCardHandler(cardService, logger),
		httptransport.NewTransferHandler(transferService, logger),
	)
	return rt.Handler(), provider
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestOnboardingFlow(t *testing.T) {
	handler, provider := newStack(t)

	// signup issues a token and attaches a KYC link
	rec := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodPost, "/auth/signup", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "correct horse",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := testutil.UnmarshalResponse[auth.Result](t, rec)
	require.NotEmpty(t, signup.AccessToken)
	require.NotNil(t, signup.KYC)
	assert.True(t, signup.KYC.Created)
	token := signup.AccessToken

	// wallet provisioning is gated until verification completes
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/bridge/wallet", nil), token))
	testutil.AssertStatusAndError(t, rec, http.StatusPreconditionFailed, "precondition_failed")

	// dashboard shows the gate closed
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodGet, "/user/dashboard", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := testutil.UnmarshalResponse[user.Dashboard](t, rec)
	assert.False(t, dashboard.CanAccessFullFeature)

	// provider approves; refresh reconciles local state
	provider.approve()
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/user/refresh-kyc", nil), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refresh := testutil.UnmarshalResponse[user.RefreshResult](t, rec)
	assert.True(t, refresh.IsVerified)

	// wallet now provisions, and repeats are idempotent
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/bridge/wallet", nil), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/bridge/wallet", nil), token))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, provider.walletCalls, "repeat wallet creation must not hit the provider")

	// the listing shows exactly the one provisioned wallet
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodGet, "/bridge/wallets", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	wallets := testutil.UnmarshalResponse[[]map[string]any](t, rec)
	require.Len(t, wallets, 1)
	assert.Equal(t, "solana", wallets[0]["chain"])

	// liquidation address over the stock corridor
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/bridge/address", nil), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"stellar"`)

	// virtual card
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/card", nil), token))
	require.Equal(t, http.StatusCreated, rec.Code)
	issued := testutil.UnmarshalResponse[card.View](t, rec)
	assert.True(t, strings.HasPrefix(issued.Number, "4"))
	assert.True(t, card.LuhnValid(issued.Number))

	// transfer passthrough
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodPost, "/bridge/transfer", map[string]any{
		"amount":      "25.0",
		"source":      map[string]string{"payment_rail": "solana", "currency": "usdc"},
		"destination": map[string]string{"payment_rail": "stellar", "currency": "usdc"},
	}), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"tr_1","state":"awaiting_funds"}`, rec.Body.String())

	// dashboard gate is now open
	rec = testutil.DoRequest(handler, authed(testutil.NewJSONRequest(t, http.MethodGet, "/user/dashboard", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard = testutil.UnmarshalResponse[user.Dashboard](t, rec)
	assert.True(t, dashboard.CanAccessFullFeature)
}

func TestSignupSurvivesProviderOutage(t *testing.T) {
	// Point the stack at a dead provider to prove signup still commits.
	logger := slog.New(slog.DiscardHandler)
	deadGateway := bridge.New(config.Bridge{
		BaseURL: "http://127.0.0.1:1",
		APIKey:  "test-key",
		Timeout: time.Second,
	}, logger, nil)
	users := userstore.NewMemoryStore()
	jwtService := jwttoken.NewJWTService("integration-secret", "vaultbridge", time.Hour)
	authService := auth.NewService(users, kyc.NewService(deadGateway, nil, 0, logger), jwtService, events.NopEmitter{}, nil, logger, 4)

	rt := httptransport.NewRouter(
		logger, nil,
		jwttoken.NewMiddlewareAdapter(jwtService),
		nil,
		httptransport.NewAuthHandler(authService, logger),
		httptransport.NewUserHandler(user.NewService(users, kyc.NewService(deadGateway, nil, 0, logger), events.NopEmitter{}, nil, logger), logger),
		httptransport.NewCustodyHandler(custody.NewService(users, deadGateway,
			custodystore.NewMemoryWalletStore(), custodystore.NewMemoryAddressStore(),
			events.NopEmitter{}, nil, logger), logger),
		httptransport.NewCardHandler(card.NewService(cardstore.NewMemoryStore(), events.NopEmitter{}, logger), logger),
		httptransport.NewTransferHandler(transfer.NewService(deadGateway, users, logger), logger),
	)
	handler := rt.Handler()

	rec := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodPost, "/auth/signup", map[string]string{
		"fullName": "Grace Hopper",
		"email":    "grace@example.com",
		"password": "correct horse",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := testutil.UnmarshalResponse[auth.Result](t, rec)
	assert.NotEmpty(t, signup.AccessToken)
	require.NotNil(t, signup.KYC)
	assert.False(t, signup.KYC.Created)
	assert.NotEmpty(t, signup.KYC.SkipReason)
}
