package kyc

// KYCStatus is the local verification-state vocabulary. Provider values
// outside this set pass through as opaque strings; only KYCApproved ever
// unlocks features.
type KYCStatus string

const (
	KYCNotStarted  KYCStatus = "not_started"
	KYCUnderReview KYCStatus = "under_review"
	KYCIncomplete  KYCStatus = "incomplete"
	KYCApproved    KYCStatus = "approved"
	KYCRejected    KYCStatus = "rejected"
)

// TOSStatus tracks terms-of-service acceptance.
type TOSStatus string

const (
	TOSPending  TOSStatus = "pending"
	TOSApproved TOSStatus = "approved"
)

// Verified reports whether the combination of statuses unlocks full feature
// access. This is the single definition of the isVerified invariant.
func Verified(kycStatus KYCStatus, tosStatus TOSStatus) bool {
	return kycStatus == KYCApproved && tosStatus == TOSApproved
}
