package user

import (
	"time"

	"vaultbridge/internal/kyc"
	id "vaultbridge/pkg/domain"
)

// User is the local identity record. The reconciler service owns all writes;
// other features only read it.
type User struct {
	ID               id.UserID
	FullName         string
	Email            string
	PasswordHash     string
	BridgeCustomerID string
	KYCLinkID        string
	KYCLinkURL       string
	TOSLinkURL       string
	KYCStatus        kyc.KYCStatus
	TOSStatus        kyc.TOSStatus
	IsVerified       bool
	CreatedAt        time.Time
}

// Summary is the caller-facing projection of a user.
type Summary struct {
	ID         string        `json:"id"`
	FullName   string        `json:"fullName"`
	Email      string        `json:"email"`
	KYCLink    string        `json:"kycLink,omitempty"`
	TOSLink    string        `json:"tosLink,omitempty"`
	KYCStatus  kyc.KYCStatus `json:"kycStatus"`
	TOSStatus  kyc.TOSStatus `json:"tosStatus"`
	IsVerified bool          `json:"isVerified"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Dashboard bundles the summary with the derived feature gate.
type Dashboard struct {
	User                 Summary `json:"user"`
	CanAccessFullFeature bool    `json:"canAccessFullFeatures"`
}

// RefreshResult is what a status refresh returns: the freshly persisted
// verification triple.
type RefreshResult struct {
	KYCStatus  kyc.KYCStatus `json:"kycStatus"`
	TOSStatus  kyc.TOSStatus `json:"tosStatus"`
	IsVerified bool          `json:"isVerified"`
}

// Summarize projects a user into its API shape.
func Summarize(u User) Summary {
	return Summary{
		ID:         u.ID.String(),
		FullName:   u.FullName,
		Email:      u.Email,
		KYCLink:    u.KYCLinkURL,
		TOSLink:    u.TOSLinkURL,
		KYCStatus:  u.KYCStatus,
		TOSStatus:  u.TOSStatus,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
