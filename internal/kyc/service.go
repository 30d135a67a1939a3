// Package kyc coordinates identity verification against the custody
// provider's KYC-link API.
package kyc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"vaultbridge/internal/bridge"
	platformredis "vaultbridge/internal/platform/redis"
	dErrors "vaultbridge/pkg/domain-errors"
)

// Gateway is the slice of the provider client this service needs.
type Gateway interface {
	CreateKYCLink(ctx context.Context, fullName, email string) (bridge.KYCLinkResult, error)
	GetKYCLink(ctx context.Context, linkID string) (bridge.KYCLink, error)
}

// Link is a verification link in local vocabulary.
type Link struct {
	ID        string
	KYCURL    string
	TOSURL    string
	KYCStatus KYCStatus
	TOSStatus TOSStatus
	Outcome   bridge.LinkOutcome
}

// Status is the current verification state for a link. CustomerID is empty
// until the provider has minted a customer for the verified identity.
type Status struct {
	KYCStatus  KYCStatus `json:"kyc_status"`
	TOSStatus  TOSStatus `json:"tos_status"`
	CustomerID string    `json:"customer_id"`
}

// Service issues and reads KYC links. The provider is the source of truth for
// deduplication: creation is always attempted and the gateway's
// duplicate normalization makes an existing link indistinguishable from a
// fresh one.
type Service struct {
	gateway  Gateway
	cache    *platformredis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService builds the coordinator. cache may be nil; cacheTTL of zero
// disables status caching even when a cache is present.
func NewService(gateway Gateway, cache *platformredis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		gateway:  gateway,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// CreateLink obtains a verification link for the identity, creating one or
// adopting the provider's existing record transparently.
func (s *Service) CreateLink(ctx context.Context, fullName, email string) (Link, error) {
	result, err := s.gateway.CreateKYCLink(ctx, fullName, email)
	if err != nil {
		return Link{}, dErrors.Wrap(dErrors.CodeUnavailable, "verification provider rejected KYC link creation", err)
	}
	return Link{
		ID:        result.Link.ID,
		KYCURL:    result.Link.KYCLink,
		TOSURL:    result.Link.TOSLink,
		KYCStatus: KYCStatus(result.Link.KYCStatus),
		TOSStatus: TOSStatus(result.Link.TOSStatus),
		Outcome:   result.Outcome,
	}, nil
}

// GetStatus fetches the current verification state for a stored link id. A
// short-TTL cache may answer instead of the provider; isVerified derivation
// always happens downstream from whatever status is returned.
func (s *Service) GetStatus(ctx context.Context, linkID string) (Status, error) {
	if cached, ok := s.cachedStatus(ctx, linkID); ok {
		return cached, nil
	}

	link, err := s.gateway.GetKYCLink(ctx, linkID)
	if err != nil {
		return Status{}, dErrors.Wrap(dErrors.CodeUnavailable, "verification provider status fetch failed", err)
	}

	status := Status{
		KYCStatus:  KYCStatus(link.KYCStatus),
		TOSStatus:  TOSStatus(link.TOSStatus),
		CustomerID: link.CustomerID,
	}
	s.cacheStatus(ctx, linkID, status)
	return status, nil
}

func (s *Service) cachedStatus(ctx context.Context, linkID string) (Status, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return Status{}, false
	}
	raw, err := s.cache.Get(ctx, statusCacheKey(linkID)).Bytes()
	if err != nil {
		return Status{}, false
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, false
	}
	return status, true
}

func (s *Service) cacheStatus(ctx context.Context, linkID string, status Status) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statusCacheKey(linkID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "kyc status cache write failed",
			"link_id", linkID,
			"error", err,
		)
	}
}

func statusCacheKey(linkID string) string {
	return "kyc:status:" + linkID
}
