// Package events publishes append-only onboarding events. The pipeline is a
// buffered channel drained by a worker into a Kafka sink; when no brokers are
// configured the emitter is a no-op so business code never branches on
// whether eventing is enabled.
package events

import (
	"context"
	"time"
)

// Event types emitted during onboarding.
const (
	TypeUserSignedUp       = "user.signed_up"
	TypeUserSignedIn       = "user.signed_in"
	TypeKYCLinkCreated     = "kyc.link_created"
	TypeStatusRefreshed    = "kyc.status_refreshed"
	TypeWalletCreated      = "wallet.created"
	TypeLiquidationCreated = "liquidation_address.created"
	TypeCardIssued         = "card.issued"
)

// Event is one onboarding fact. Data carries type-specific detail; values are
// strings so the payload stays greppable downstream.
type Event struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// Emitter is what business code publishes through. Emit never blocks and
// never fails.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NopEmitter drops everything. Used when eventing is not configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}
