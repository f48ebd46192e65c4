package signalnorm

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookVerifier implements pkg/api.SignatureVerifier: Zendesk and
// Freshdesk sign with HMAC-SHA256, Intercom with HMAC-SHA1, all as a hex
// digest; Intercom additionally prefixes its header with "sha1=". Secrets
// are looked up per vendor; a vendor with no configured secret always
// fails closed.
type WebhookVerifier struct {
	secrets map[string]string
}

// NewWebhookVerifier builds a WebhookVerifier from a vendor name to shared
// secret map (e.g. {"zendesk": "...", "freshdesk": "...", "intercom": "..."}).
func NewWebhookVerifier(secrets map[string]string) *WebhookVerifier {
	return &WebhookVerifier{secrets: secrets}
}

// Verify checks body against signatureHeader using vendor's configured
// secret and signing scheme.
func (v *WebhookVerifier) Verify(vendor string, body []byte, signatureHeader string) bool {
	secret, ok := v.secrets[vendor]
	if !ok || secret == "" || signatureHeader == "" {
		return false
	}

	switch vendor {
	case "zendesk", "freshdesk":
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(signatureHeader))
	case "intercom":
		sig := strings.TrimPrefix(signatureHeader, "sha1=")
		mac := hmac.New(sha1.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(sig))
	default:
		return false
	}
}
