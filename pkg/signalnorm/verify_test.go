package signalnorm

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookVerifier_ZendeskValidSignature(t *testing.T) {
	v := NewWebhookVerifier(map[string]string{"zendesk": "s3cret"})
	body := []byte(`{"ticket":1}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, v.Verify("zendesk", body, sig))
	assert.False(t, v.Verify("zendesk", body, "garbage"))
}

func TestWebhookVerifier_IntercomValidSignature(t *testing.T) {
	v := NewWebhookVerifier(map[string]string{"intercom": "s3cret"})
	body := []byte(`{"event":"ping"}`)
	mac := hmac.New(sha1.New, []byte("s3cret"))
	mac.Write(body)
	sig := "sha1=" + hex.EncodeToString(mac.Sum(nil))

	assert.True(t, v.Verify("intercom", body, sig))
}

func TestWebhookVerifier_UnknownVendorSecretFailsClosed(t *testing.T) {
	v := NewWebhookVerifier(map[string]string{"zendesk": "s3cret"})
	assert.False(t, v.Verify("freshdesk", []byte("x"), "anything"))
}
