package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail lowercases the address; email is the contact natural key and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phoneStripRegex = regexp.MustCompile(`[^\d+]`)

// NormalizePhone formats to E.164 when the number parses for the given region.
// Otherwise it strips everything but digits and a leading '+'.
func NormalizePhone(phone string, countryCode string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if countryCode != "" {
		if p, err := libphonenumber.Parse(phone, strings.ToUpper(countryCode)); err == nil && libphonenumber.IsValidNumber(p) {
			return libphonenumber.Format(p, libphonenumber.E164)
		}
	}
	stripped := phoneStripRegex.ReplaceAllString(phone, "")
	if strings.Contains(stripped, "+") {
		plus := strings.HasPrefix(stripped, "+")
		stripped = strings.ReplaceAll(stripped, "+", "")
		if plus {
			stripped = "+" + stripped
		}
	}
	return stripped
}

func NormalizeVat(vat string) string {
	return strings.ToUpper(strings.TrimSpace(vat))
}

// CanonicalPayloadHash returns the hex SHA-256 over the canonical JSON form of
// the payload (sorted keys, compact separators). The hash identifies the exact
// business content of an inbound call independent of field order on the wire.
func CanonicalPayloadHash(payload map[string]interface{}) string {
	// encoding/json marshals map keys in sorted order.
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}
