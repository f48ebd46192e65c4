package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMapFieldNames(t *testing.T) {
	svc := NewService(DefaultSensitiveFields(), nil)
	input := map[string]any{
		"merchant_id": "merchant-42",
		"api_key":     "sk-abcdefghijklmnopqrstuvwxyz",
		"nested": map[string]any{
			"password": "hunter2",
			"note":     "ok",
		},
	}

	out := svc.RedactMap(input)

	assert.Equal(t, "merchant-42", out["merchant_id"])
	assert.Equal(t, "[REDACTED]", out["api_key"])
	nested := out["nested"].(map[string]any)
	assert.Equal(t, "[REDACTED]", nested["password"])
	assert.Equal(t, "ok", nested["note"])

	// Original input must not be mutated.
	assert.Equal(t, "sk-abcdefghijklmnopqrstuvwxyz", input["api_key"])
}

func TestRedactStringPatterns(t *testing.T) {
	svc := NewService(DefaultSensitiveFields(), nil)
	out := svc.RedactString("contact support at ops@example.com or call 555-123-4567")
	assert.NotContains(t, out, "ops@example.com")
	assert.Contains(t, out, "[REDACTED_EMAIL]")
}

func TestRedactMapPreservesNonSensitiveStructure(t *testing.T) {
	svc := NewService([]string{"secret"}, nil)
	input := map[string]any{
		"a": 1,
		"b": []any{"x", "y"},
		"c": map[string]any{"d": true},
	}
	out := svc.RedactMap(input)
	assert.Equal(t, 1, out["a"])
	assert.Equal(t, []any{"x", "y"}, out["b"])
	assert.Equal(t, map[string]any{"d": true}, out["c"])
}
