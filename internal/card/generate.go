package card

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// generateNumber produces a Luhn-valid 16-digit card number on the Visa-style
// "4" prefix. Digits come from crypto/rand; the final digit is the checksum.
func generateNumber() (string, error) {
	digits := make([]int, 16)
	digits[0] = 4
	for i := 1; i < 15; i++ {
		d, err := randInt(10)
		if err != nil {
			return "", fmt.Errorf("generate card number: %w", err)
		}
		digits[i] = d
	}
	digits[15] = luhnCheckDigit(digits[:15])

	out := make([]byte, 16)
	for i, d := range digits {
		out[i] = byte('0' + d)
	}
	return string(out), nil
}

// luhnCheckDigit computes the checksum digit for a 15-digit payload.
func luhnCheckDigit(payload []int) int {
	sum := 0
	// The check digit occupies the final position, so the payload's last
	// digit is doubled, alternating leftward.
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := payload[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// LuhnValid reports whether a numeric string passes the Luhn checksum.
func LuhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return len(number) > 0 && sum%10 == 0
}

func generateCVV() (string, error) {
	n, err := randInt(1000)
	if err != nil {
		return "", fmt.Errorf("generate cvv: %w", err)
	}
	return fmt.Sprintf("%03d", n), nil
}

// generateExpiry picks an end-of-month expiry one to five years out.
func generateExpiry(now time.Time) (time.Time, error) {
	years, err := randInt(5)
	if err != nil {
		return time.Time{}, fmt.Errorf("generate expiry: %w", err)
	}
	expiry := now.AddDate(years+1, 0, 0)
	// normalize to the first of the month; card expiries are month-granular
	return time.Date(expiry.Year(), expiry.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// generateBalance picks a starting USDC balance between 10 and 1000, two
// decimal places.
func generateBalance() (float64, error) {
	cents, err := randInt(99001)
	if err != nil {
		return 0, fmt.Errorf("generate balance: %w", err)
	}
	raw := 10 + float64(cents)/100
	parsed, err := strconv.ParseFloat(fmt.Sprintf("%.2f", raw), 64)
	if err != nil {
		return 0, fmt.Errorf("generate balance: %w", err)
	}
	return parsed, nil
}

func randInt(max int64) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
