package configmgr

import (
	"fmt"
	"strings"
)

// ResourceType is the closed set of config resources this core knows how to
// validate, grounded on config_manager.py's validate_config_change branches.
type ResourceType string

const (
	ResourceMerchantConfig ResourceType = "merchant_config"
	ResourceAPISettings    ResourceType = "api_settings"
	ResourceWebhookConfig  ResourceType = "webhook_config"
)

// validate dispatches to the per-resource-type validator. Unknown resource
// types pass generic validation, matching the original's permissive
// fallthrough.
func validate(resourceType ResourceType, config map[string]any) error {
	switch resourceType {
	case ResourceMerchantConfig:
		return validateMerchantConfig(config)
	case ResourceAPISettings:
		return validateAPISettings(config)
	case ResourceWebhookConfig:
		return validateWebhookConfig(config)
	default:
		return nil
	}
}

func validateMerchantConfig(config map[string]any) error {
	for _, field := range []string{"merchant_id", "api_key"} {
		if _, ok := config[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	apiKey, ok := config["api_key"].(string)
	if !ok || len(apiKey) < 10 {
		return fmt.Errorf("invalid api_key format")
	}
	return nil
}

func validateAPISettings(config map[string]any) error {
	if raw, ok := config["timeout"]; ok {
		timeout, ok := toFloat(raw)
		if !ok || timeout <= 0 {
			return fmt.Errorf("timeout must be a positive number")
		}
	}
	if raw, ok := config["rate_limit"]; ok {
		limit, ok := toFloat(raw)
		if !ok || limit != float64(int(limit)) || limit <= 0 {
			return fmt.Errorf("rate_limit must be a positive integer")
		}
	}
	return nil
}

func validateWebhookConfig(config map[string]any) error {
	if raw, ok := config["url"]; ok {
		url, ok := raw.(string)
		if !ok || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
			return fmt.Errorf("invalid webhook url")
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// KnownFixResources is the closed enumeration of resource names the
// Decision Engine's config-error auto-fix path may target. Unlike the
// Decision Engine's looser substring match (pkg/decision.canAutoFixConfig),
// the Action Executor checks membership in this exact set (via
// IsKnownFixResource) before calling Manager.Apply; Apply itself does not.
// A resource named e.g. "retry_count_backup" matches the substring check
// but not this one, so the executor refuses the mitigation.
var KnownFixResources = map[string]bool{
	"webhook_url": true,
	"api_timeout": true,
	"retry_count": true,
	"log_level":   true,
}

// IsKnownFixResource reports whether resource is an exact member of the
// closed auto-fix resource set.
func IsKnownFixResource(resource string) bool {
	return KnownFixResources[strings.ToLower(resource)]
}
