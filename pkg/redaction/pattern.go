package redaction

import (
	"log/slog"
	"regexp"
)

// CompiledPattern is a pre-compiled free-form-string redaction rule.
type CompiledPattern struct {
	Name    string
	Regex   *regexp.Regexp
	Replace string
}

// DefaultPatterns returns the pattern set named in the component design:
// email, 16-digit credit card, US SSN, phone, bearer token, AWS access key,
// and provider-prefixed API keys. Compiled once at service construction;
// an invalid pattern from user config is logged and skipped rather than
// failing startup.
func DefaultPatterns() []CompiledPattern {
	specs := []struct{ name, pattern, replace string }{
		{"email", `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`, "[REDACTED_EMAIL]"},
		{"credit_card", `\b(?:\d[ -]*?){16}\b`, "[REDACTED_CARD]"},
		{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "[REDACTED_SSN]"},
		{"phone", `\b\+?1?[ .\-]?\(?\d{3}\)?[ .\-]?\d{3}[ .\-]?\d{4}\b`, "[REDACTED_PHONE]"},
		{"bearer_token", `(?i)bearer\s+[a-zA-Z0-9\-_.~+/]+=*`, "Bearer [REDACTED]"},
		{"aws_access_key", `\bAKIA[0-9A-Z]{16}\b`, "[REDACTED_AWS_KEY]"},
		{"provider_api_key", `\b(sk|pk|rk)-[a-zA-Z0-9]{20,}\b`, "[REDACTED_API_KEY]"},
	}

	patterns := make([]CompiledPattern, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(s.pattern)
		if err != nil {
			slog.Error("failed to compile redaction pattern, skipping", "pattern", s.name, "error", err)
			continue
		}
		patterns = append(patterns, CompiledPattern{Name: s.name, Regex: re, Replace: s.replace})
	}
	return patterns
}

// DefaultSensitiveFields is the closed field-name set named in the
// component design. Matching is case-insensitive against map/struct keys.
func DefaultSensitiveFields() []string {
	return []string{
		"password", "passwd", "pwd", "secret", "api_key", "apikey",
		"access_token", "refresh_token", "bearer_token", "private_key",
		"secret_key", "client_secret", "auth_token", "authorization",
		"credit_card", "card_number", "cvv", "ssn", "social_security",
	}
}

const fieldRedactedPlaceholder = "[REDACTED]"
