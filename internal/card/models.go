// Package card issues virtual USDC cards. One card per user; issuance is
// idempotent and fully local, no provider involvement.
package card

import (
	"time"

	id "vaultbridge/pkg/domain"
)

// Card is a virtual card record. Number is stored in full; masking is a
// presentation concern handled by Masked.
type Card struct {
	ID        id.CardID
	UserID    id.UserID
	Number    string
	CVV       string
	ExpiresAt time.Time
	Balance   float64
	Currency  string
	CreatedAt time.Time
}

// View is the caller-facing card projection.
type View struct {
	ID         string  `json:"id"`
	Number     string  `json:"number"`
	CVV        string  `json:"cvv"`
	Expiry     string  `json:"expiry"`
	Balance    float64 `json:"balance"`
	Currency   string  `json:"currency"`
	MaskedView string  `json:"masked"`
}

// Render projects a card into its API shape.
func Render(c Card) View {
	return View{
		ID:         c.ID.String(),
		Number:     c.Number,
		CVV:        c.CVV,
		Expiry:     c.ExpiresAt.Format("01/06"),
		Balance:    c.Balance,
		Currency:   c.Currency,
		MaskedView: Masked(c.Number),
	}
}

// Masked keeps the last four digits.
func Masked(number string) string {
	if len(number) < 4 {
		return number
	}
	return "**** **** **** " + number[len(number)-4:]
}
