// Package config loads and validates migrationguard's service configuration:
// detection thresholds, circuit breaker presets, retry policy, safe mode
// thresholds, rate limiting, cache TTLs, the LLM provider, and redaction
// rules. It follows the same builtin-defaults-plus-YAML-overlay shape as the
// agent/chain registries it's modeled on, but the sections are this
// pipeline's own domain knobs rather than agent definitions.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// DetectionConfig controls the Pattern Detector's window and clustering.
type DetectionConfig struct {
	WindowMinutes         int           `yaml:"window_minutes"`
	MinPatternFrequency   int           `yaml:"min_pattern_frequency"`
	SimilarityThreshold   float64       `yaml:"similarity_threshold"`
	PeriodicAnalysisEvery time.Duration `yaml:"periodic_analysis_every"`
	ClusterRadius         float64       `yaml:"cluster_radius"`
}

// RetryConfig controls the Action Executor's backoff policy (§4.6).
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	BaseInterval time.Duration `yaml:"base_interval"`
	MaxInterval  time.Duration `yaml:"max_interval"`
}

// SafeModeConfig controls the Safe Mode detector's thresholds (§4.9).
type SafeModeConfig struct {
	ConfidenceDriftThreshold  float64       `yaml:"confidence_drift_threshold"`
	ExcessiveActionsThreshold int           `yaml:"excessive_actions_threshold"`
	ExcessiveActionsWindow    time.Duration `yaml:"excessive_actions_window"`
}

// RateLimitConfig controls per-merchant, per-action-type rate limiting.
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	// DefaultLimit applies to any action_type not named in Limits.
	DefaultLimit int `yaml:"default_limit"`
	// Limits overrides DefaultLimit per action_type, keyed by the
	// models.ActionType string value.
	Limits map[string]int `yaml:"limits"`
	// ExcessiveActionsThreshold flags (log-only, does not reject) a
	// merchant+action_type pair once its windowed count reaches this,
	// distinct from the hard rejection at Limits/DefaultLimit.
	ExcessiveActionsThreshold int `yaml:"excessive_actions_threshold"`
}

// CacheConfig names the TTLs for each cache key family (§6).
type CacheConfig struct {
	PatternTTL      time.Duration `yaml:"pattern_ttl"`
	RateLimitTTL    time.Duration `yaml:"rate_limit_ttl"`
	SignalBufferTTL time.Duration `yaml:"signal_buffer_ttl"`
}

// LLMConfig names the root-cause analyzer's LLM provider settings.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TimeoutConfig names bounded timeouts for external calls (§5).
type TimeoutConfig struct {
	Search    time.Duration `yaml:"search"`
	TicketAPI time.Duration `yaml:"ticket_api"`
}

// RedactionConfig names the sensitive-field and pattern lists used by
// pkg/redaction.
type RedactionConfig struct {
	SensitiveFields []string `yaml:"sensitive_fields"`
	Patterns        []string `yaml:"patterns"`
}

// NotificationConfig carries the Slack channel settings consumed by
// pkg/notification.
type NotificationConfig struct {
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`
}

// Config is the umbrella struct for the whole service, mirroring the
// teacher's Config type: one struct, one Initialize entry point, a handful
// of component sections instead of agent/chain/MCP-server registries.
type Config struct {
	configDir string

	Detection       DetectionConfig             `yaml:"detection"`
	CircuitBreakers map[string]BreakerSettings  `yaml:"circuit_breakers"`
	Retry           RetryConfig                 `yaml:"retry"`
	SafeMode        SafeModeConfig              `yaml:"safe_mode"`
	RateLimit       RateLimitConfig             `yaml:"rate_limit"`
	Cache           CacheConfig                 `yaml:"cache"`
	LLM             LLMConfig                   `yaml:"llm"`
	Timeouts        TimeoutConfig               `yaml:"timeouts"`
	Redaction       RedactionConfig             `yaml:"redaction"`
	Notification    NotificationConfig          `yaml:"notification"`
}

// Stats is a small summary used by the health endpoint.
type Stats struct {
	CircuitBreakers int `json:"circuit_breakers"`
	SensitiveFields int `json:"sensitive_fields"`
}

// ConfigDir returns the directory this configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

// Stats summarizes the loaded configuration.
func (c *Config) Stats() Stats {
	return Stats{
		CircuitBreakers: len(c.CircuitBreakers),
		SensitiveFields: len(c.Redaction.SensitiveFields),
	}
}

// Breaker returns the named circuit breaker settings, or the "llm" default
// if the name is unknown — callers always get a usable setting, matching
// spec.md's preconfigured-breaker table.
func (c *Config) Breaker(name string) BreakerSettings {
	if b, ok := c.CircuitBreakers[name]; ok {
		return b
	}
	return c.CircuitBreakers["llm"]
}

// Initialize loads core.yaml (if present) from configDir, expands
// environment variables, merges it over Defaults(), and validates the
// result. It does not read a .env file; the caller loads that into the
// process environment beforehand. A missing core.yaml is not an error: the
// built-in defaults are a complete, valid configuration on their own.
func Initialize(configDir string) (*Config, error) {
	cfg := Defaults()
	cfg.configDir = configDir

	path := configDir + "/core.yaml"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if verr := validate(cfg); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergo.Merge(cfg, overlay, mergo.WithOverride); err != nil {
		return nil, NewLoadError(path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(c *Config) error {
	if c.Detection.MinPatternFrequency <= 0 {
		return NewValidationError("detection", "min_pattern_frequency", "", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if c.Detection.SimilarityThreshold < 0 || c.Detection.SimilarityThreshold > 1 {
		return NewValidationError("detection", "similarity_threshold", "", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
	}
	if c.Retry.MaxAttempts <= 0 {
		return NewValidationError("retry", "max_attempts", "", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	for name, b := range c.CircuitBreakers {
		if b.FailureThreshold == 0 {
			return NewValidationError("circuit_breaker", name, "failure_threshold", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
		}
	}
	return nil
}
