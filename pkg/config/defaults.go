package config

import "time"

// BreakerSettings mirrors the preconfigured circuit breakers named in §4.11.
type BreakerSettings struct {
	FailureThreshold uint          `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

// Defaults returns the built-in configuration baseline. User YAML is merged
// on top of this via mergo, never replacing it wholesale, matching the
// teacher's builtin+overlay pattern.
func Defaults() *Config {
	return &Config{
		Detection: DetectionConfig{
			WindowMinutes:        2,
			MinPatternFrequency:  3,
			SimilarityThreshold:  0.7,
			PeriodicAnalysisEvery: 30 * time.Second,
			ClusterRadius:        0.3,
		},
		CircuitBreakers: map[string]BreakerSettings{
			"llm":           {FailureThreshold: 5, RecoveryTimeout: 60 * time.Second},
			"support":       {FailureThreshold: 3, RecoveryTimeout: 30 * time.Second},
			"search_index":  {FailureThreshold: 5, RecoveryTimeout: 45 * time.Second},
			"event_bus":     {FailureThreshold: 5, RecoveryTimeout: 30 * time.Second},
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseInterval:  2 * time.Second,
			MaxInterval:   10 * time.Second,
		},
		SafeMode: SafeModeConfig{
			ConfidenceDriftThreshold: 0.05,
			ExcessiveActionsThreshold: 20,
			ExcessiveActionsWindow:   1 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:             60,
			DefaultLimit:              20,
			ExcessiveActionsThreshold: 10,
			Limits: map[string]int{
				"temporary_mitigation": 5,
			},
		},
		Cache: CacheConfig{
			PatternTTL:       1 * time.Hour,
			RateLimitTTL:     60 * time.Second,
			SignalBufferTTL:  7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-5",
			Timeout:  30 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Search:    30 * time.Second,
			TicketAPI: 30 * time.Second,
		},
	}
}
