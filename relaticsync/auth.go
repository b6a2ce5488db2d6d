package relaticsync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shidalgo0925/relatic-integration/config"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Relatic-Signature"

func checkAPIKey(c *gin.Context, settings *config.Settings) bool {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token != "" && token == settings.APIKey
}

// RequireAPIKey gates the operator endpoints behind the same bearer
// credential as the webhook. Mutating routes (retry, refund) must never be
// reachable without it.
func RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings := config.GetSettings()
		if settings == nil || !checkAPIKey(c, settings) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorEnvelope(ErrCodeInvalidApiKey, "missing or invalid api key", false))
			return
		}
		c.Next()
	}
}

// verifySignature checks the HMAC over the exact received byte sequence.
// Constant-time comparison. Skipped only in explicit insecure mode.
func verifySignature(body []byte, signature string, settings *config.Settings) bool {
	if settings.HMACSecret == "" {
		return settings.InsecureSkipSignature
	}
	mac := hmac.New(sha256.New, []byte(settings.HMACSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
