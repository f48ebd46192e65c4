// Package redaction applies field-name and pattern-based redaction to log
// and audit sink payloads before they're written, generalized from the
// teacher's pkg/masking (MCP tool output / alert payload masking) to
// arbitrary audit/log data trees.
package redaction

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Service applies redaction over an arbitrary tree of maps, slices, and
// scalars. Created once at startup (singleton), thread-safe and stateless
// beyond its compiled pattern set.
type Service struct {
	sensitiveFields map[string]bool
	patterns        []CompiledPattern
}

// NewService compiles the sensitive-field set and pattern list. Both are
// configuration (pkg/config.RedactionConfig), not code, per the component
// design's explicit instruction.
func NewService(sensitiveFields, patternNames []string) *Service {
	fieldSet := make(map[string]bool, len(sensitiveFields))
	for _, f := range sensitiveFields {
		fieldSet[strings.ToLower(f)] = true
	}

	all := DefaultPatterns()
	if len(patternNames) == 0 {
		return &Service{sensitiveFields: fieldSet, patterns: all}
	}

	wanted := make(map[string]bool, len(patternNames))
	for _, n := range patternNames {
		wanted[n] = true
	}
	selected := make([]CompiledPattern, 0, len(patternNames))
	for _, p := range all {
		if wanted[p.Name] {
			selected = append(selected, p)
		}
	}
	return &Service{sensitiveFields: fieldSet, patterns: selected}
}

// RedactMap applies field-name and pattern redaction to a decoded JSON-like
// map, returning a fresh map. The input is never mutated — invariant 13
// requires the original input untouched. Structure (keys, nesting,
// non-sensitive values) is preserved exactly.
func (s *Service) RedactMap(data map[string]any) map[string]any {
	out, ok := s.redactValue(data).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return out
}

// RedactString applies only the pattern set to a free-form string — used
// for error messages and reasoning text that aren't structured data.
func (s *Service) RedactString(text string) string {
	redacted := text
	for _, p := range s.patterns {
		redacted = p.Regex.ReplaceAllString(redacted, p.Replace)
	}
	return redacted
}

// RedactAny marshals v to JSON and redacts the resulting generic tree — the
// struct path the component design calls "via encoding/json round-trip to a
// generic tree" for inputs that aren't already map[string]any (e.g. domain
// structs passed straight to an audit entry's Inputs/Outputs fields).
func (s *Service) RedactAny(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		slog.Error("redaction: value did not decode as an object, redacting opaquely", "error", err)
		return map[string]any{"_redacted_unstructured": fieldRedactedPlaceholder}, nil
	}
	return s.RedactMap(generic), nil
}

func (s *Service) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		fresh := make(map[string]any, len(val))
		for k, child := range val {
			if s.sensitiveFields[strings.ToLower(k)] {
				fresh[k] = fieldRedactedPlaceholder
				continue
			}
			fresh[k] = s.redactValue(child)
		}
		return fresh
	case []any:
		fresh := make([]any, len(val))
		for i, child := range val {
			fresh[i] = s.redactValue(child)
		}
		return fresh
	case string:
		return s.RedactString(val)
	default:
		return val
	}
}
