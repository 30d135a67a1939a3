package bridge

import "encoding/json"

// Wire types for the custody provider API. Field names follow the provider's
// snake_case payloads; local domain types live with their owning features.

// Customer is a provider customer record.
type Customer struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}

// KYCLink is the provider's verification-link resource. The same shape comes
// back from a fresh creation, a duplicate-record rejection, and a status
// fetch; CustomerID is empty until verification has progressed far enough for
// the provider to mint a customer.
type KYCLink struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	KYCLink    string `json:"kyc_link"`
	TOSLink    string `json:"tos_link"`
	KYCStatus  string `json:"kyc_status"`
	TOSStatus  string `json:"tos_status"`
	CustomerID string `json:"customer_id"`
	CreatedAt  string `json:"created_at"`
}

// LinkOutcome tags whether a KYC link was freshly created or already existed
// on the provider side. Callers get the same Link either way.
type LinkOutcome string

const (
	LinkCreated       LinkOutcome = "created"
	LinkAlreadyExists LinkOutcome = "already_exists"
)

// KYCLinkResult is the normalized creation result.
type KYCLinkResult struct {
	Outcome LinkOutcome
	Link    KYCLink
}

// Wallet is a provider custody wallet.
type Wallet struct {
	ID        string   `json:"id"`
	Chain     string   `json:"chain"`
	Address   string   `json:"address"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// WalletBalance is one currency balance held in a wallet.
type WalletBalance struct {
	Balance         string `json:"balance"`
	Currency        string `json:"currency"`
	Chain           string `json:"chain"`
	ContractAddress string `json:"contract_address"`
}

// WalletDetail is a wallet read including balances.
type WalletDetail struct {
	Wallet
	Balances []WalletBalance `json:"balances"`
}

// LiquidationAddressRequest describes the corridor to open: funds arriving on
// Chain in Currency are converted and forwarded to the wallet behind
// DestinationPaymentRail.
type LiquidationAddressRequest struct {
	Chain                  string `json:"chain"`
	Currency               string `json:"currency"`
	DestinationPaymentRail string `json:"destination_payment_rail"`
	BridgeWalletID         string `json:"bridge_wallet_id"`
	DestinationCurrency    string `json:"destination_currency"`
}

// LiquidationAddress is the provider's auto-conversion address resource.
type LiquidationAddress struct {
	ID                     string `json:"id"`
	Chain                  string `json:"chain"`
	Address                string `json:"address"`
	Currency               string `json:"currency"`
	BlockchainMemo         string `json:"blockchain_memo"`
	DestinationPaymentRail string `json:"destination_payment_rail"`
	DestinationCurrency    string `json:"destination_currency"`
	DestinationAddress     string `json:"destination_address"`
	State                  string `json:"state"`
	CreatedAt              string `json:"created_at"`
	UpdatedAt              string `json:"updated_at"`
}

// TransferRequest creates a provider transfer on behalf of a customer. Source
// and destination schemas vary by rail, so they pass through untyped.
type TransferRequest struct {
	Amount      string          `json:"amount"`
	OnBehalfOf  string          `json:"on_behalf_of"`
	Source      json.RawMessage `json:"source"`
	Destination json.RawMessage `json:"destination"`
}

// duplicateRecordBody is the error payload shape for duplicate_record
// rejections on KYC link creation.
type duplicateRecordBody struct {
	Code            string  `json:"code"`
	ExistingKYCLink KYCLink `json:"existing_kyc_link"`
}
