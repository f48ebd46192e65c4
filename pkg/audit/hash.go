// Package audit implements the per-issue hash-chained audit trail: every
// action execution and orchestration event is recorded as an immutable
// AuditEntry whose hash covers the previous entry's hash, making tampering
// with any entry detectable by recomputation.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/migrationguard/core/pkg/models"
)

// computeHash reproduces the original's json.dumps(..., sort_keys=True)
// canonicalization by marshaling a map[string]any, which encoding/json
// always serializes with alphabetically sorted keys.
func computeHash(fields models.HashableAuditFields) (string, error) {
	data, err := json.Marshal(fields.AsMap())
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize audit fields: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
