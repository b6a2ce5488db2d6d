package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Settings is the typed integration configuration, resolved once at startup.
// The original deployment read these as ad-hoc key/value parameters; a struct
// keeps the gateway boundary re-validatable and the insecure mode explicit.
type Settings struct {
	// APIKey is the bearer credential expected on every webhook call.
	APIKey string `validate:"required"`

	// HMACSecret signs the raw request body (HMAC-SHA256, hex). Empty is only
	// legal together with InsecureSkipSignature.
	HMACSecret string

	// InsecureSkipSignature disables signature verification when no secret is
	// configured. Dev-mode only; never a silent default.
	InsecureSkipSignature bool

	// AutoCreateProducts allows the catalog resolver to create unknown SKUs.
	AutoCreateProducts bool

	// DefaultCountryCode is used when a member's country code is unrecognized.
	DefaultCountryCode string `validate:"required,len=2"`
}

var settings *Settings

func GetSettings() *Settings {
	return settings
}

// SetSettings overrides the global settings. Used by main() and by tests.
func SetSettings(s *Settings) {
	settings = s
}

// LoadSettings reads the integration settings from env and validates them.
// Env:
// - RELATIC_API_KEY
// - RELATIC_HMAC_SECRET
// - RELATIC_INSECURE_SKIP_SIGNATURE=true (dev only)
// - RELATIC_AUTO_CREATE_PRODUCTS=true
// - RELATIC_DEFAULT_COUNTRY (default "PA")
func LoadSettings() (*Settings, error) {
	s := &Settings{
		APIKey:                strings.TrimSpace(os.Getenv("RELATIC_API_KEY")),
		HMACSecret:            strings.TrimSpace(os.Getenv("RELATIC_HMAC_SECRET")),
		InsecureSkipSignature: boolFromEnv("RELATIC_INSECURE_SKIP_SIGNATURE"),
		AutoCreateProducts:    boolFromEnv("RELATIC_AUTO_CREATE_PRODUCTS"),
		DefaultCountryCode:    strings.ToUpper(strings.TrimSpace(os.Getenv("RELATIC_DEFAULT_COUNTRY"))),
	}
	if s.DefaultCountryCode == "" {
		s.DefaultCountryCode = "PA"
	}

	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if s.HMACSecret == "" && !s.InsecureSkipSignature {
		return nil, fmt.Errorf("RELATIC_HMAC_SECRET is empty; set it or opt in with RELATIC_INSECURE_SKIP_SIGNATURE=true")
	}

	settings = s
	return s, nil
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
