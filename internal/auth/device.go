package auth

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceLabel turns a raw User-Agent header into a short human-readable
// label, e.g. "Chrome on Mac OS X". Used only for event enrichment.
func DeviceLabel(rawUserAgent string) string {
	if rawUserAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
