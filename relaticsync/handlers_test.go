package relaticsync

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shidalgo0925/relatic-integration/config"
)

// NOTE: These tests are intentionally DB-free. They cover the gateway checks
// that run before any database access: credential, signature, and the
// validation gate. Full pipeline behavior is covered by the integration tests.

const (
	testAPIKey     = "test-api-key"
	testHMACSecret = "test-hmac-secret"
)

func setupRouter(settings *config.Settings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.SetSettings(settings)
	r := gin.New()
	r.POST("/api/relatic/v1/sale", SaleWebhookHandler())
	return r
}

func signedSettings() *config.Settings {
	return &config.Settings{
		APIKey:             testAPIKey,
		HMACSecret:         testHMACSecret,
		DefaultCountryCode: "PA",
	}
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postSale(r *gin.Engine, body []byte, apiKey, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/relatic/v1/sale", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(basePayload())
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not an error envelope: %v", err)
	}
	return envelope
}

func TestSaleWebhook_MissingAPIKey(t *testing.T) {
	r := setupRouter(signedSettings())
	body := validBody(t)

	w := postSale(r, body, "", sign(body, testHMACSecret))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if envelope := decodeError(t, w); envelope.Error.Code != ErrCodeInvalidApiKey {
		t.Fatalf("expected %s, got %s", ErrCodeInvalidApiKey, envelope.Error.Code)
	}
}

func TestSaleWebhook_WrongAPIKey(t *testing.T) {
	r := setupRouter(signedSettings())
	body := validBody(t)

	w := postSale(r, body, "wrong-key", sign(body, testHMACSecret))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSaleWebhook_BadSignature(t *testing.T) {
	r := setupRouter(signedSettings())
	body := validBody(t)

	w := postSale(r, body, testAPIKey, sign(body, "other-secret"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if envelope := decodeError(t, w); envelope.Error.Code != ErrCodeInvalidSignature {
		t.Fatalf("expected %s, got %s", ErrCodeInvalidSignature, envelope.Error.Code)
	}
}

func TestSaleWebhook_MissingSignature(t *testing.T) {
	r := setupRouter(signedSettings())
	body := validBody(t)

	w := postSale(r, body, testAPIKey, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSaleWebhook_SignatureOverExactBytes(t *testing.T) {
	r := setupRouter(signedSettings())
	body := validBody(t)
	// Signature computed over a re-serialized form must not pass.
	reordered := append([]byte(" "), body...)

	w := postSale(r, body, testAPIKey, sign(reordered, testHMACSecret))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for signature over different bytes, got %d", w.Code)
	}
}

func TestSaleWebhook_InsecureModeSkipsSignature(t *testing.T) {
	r := setupRouter(&config.Settings{
		APIKey:                testAPIKey,
		InsecureSkipSignature: true,
		DefaultCountryCode:    "PA",
	})
	// Invalid payload keeps the request DB-free: reaching the validation gate
	// proves the signature check was skipped.
	w := postSale(r, []byte(`{"order_id": ""}`), testAPIKey, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 past the signature check, got %d", w.Code)
	}
}

func TestSaleWebhook_EmptySecretWithoutInsecureModeRejects(t *testing.T) {
	r := setupRouter(&config.Settings{
		APIKey:             testAPIKey,
		DefaultCountryCode: "PA",
	})
	body := validBody(t)

	w := postSale(r, body, testAPIKey, sign(body, ""))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no secret is configured and insecure mode is off, got %d", w.Code)
	}
}

func TestSaleWebhook_MalformedJSON(t *testing.T) {
	r := setupRouter(signedSettings())
	body := []byte("{not json")

	w := postSale(r, body, testAPIKey, sign(body, testHMACSecret))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func setupOperatorRouter(settings *config.Settings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.SetSettings(settings)
	r := gin.New()
	operator := r.Group("/", RequireAPIKey())
	operator.GET("/api/relatic/v1/sync-logs", SyncLogsHandler())
	operator.POST("/internal/relatic/refund", RefundHandler())
	return r
}

func TestOperatorRoutes_RejectMissingAPIKey(t *testing.T) {
	r := setupOperatorRouter(signedSettings())

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/relatic/v1/sync-logs"},
		{http.MethodPost, "/internal/relatic/refund"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without credential, got %d", route.method, route.path, w.Code)
		}
		if envelope := decodeError(t, w); envelope.Error.Code != ErrCodeInvalidApiKey {
			t.Fatalf("expected %s, got %s", ErrCodeInvalidApiKey, envelope.Error.Code)
		}
	}
}

func TestOperatorRoutes_RejectWrongAPIKey(t *testing.T) {
	r := setupOperatorRouter(signedSettings())

	req := httptest.NewRequest(http.MethodGet, "/api/relatic/v1/sync-logs", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong credential, got %d", w.Code)
	}
}

func TestOperatorRoutes_ValidKeyPassesMiddleware(t *testing.T) {
	r := setupOperatorRouter(signedSettings())

	// Getting past the middleware is the point here; without a database the
	// handler answers not-ready, with one it answers the query. Either way
	// the credential must not be rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/relatic/v1/sync-logs", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Fatalf("valid credential must pass the middleware, got %d", w.Code)
	}
}

func TestSaleWebhook_ValidationFailureIsBadRequest(t *testing.T) {
	r := setupRouter(signedSettings())
	payload := basePayload()
	payload["items"] = []interface{}{}
	body, _ := json.Marshal(payload)

	w := postSale(r, body, testAPIKey, sign(body, testHMACSecret))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	envelope := decodeError(t, w)
	if envelope.Error.Code != ErrCodeEmptyItems {
		t.Fatalf("expected %s, got %s", ErrCodeEmptyItems, envelope.Error.Code)
	}
	if envelope.Retry {
		t.Fatal("validation failures must not be marked retryable")
	}
}
