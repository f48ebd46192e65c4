package models

import "time"

// ConfigSnapshot is a point-in-time capture of a resource's configuration,
// checksummed for tamper detection.
type ConfigSnapshot struct {
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	ConfigData   map[string]any `json:"config_data"`
	Timestamp    time.Time      `json:"timestamp"`
	Checksum     string         `json:"checksum"`
}

// ConfigChange records one applied (and possibly rolled back) configuration
// mutation.
type ConfigChange struct {
	ChangeID       string         `json:"change_id"`
	BeforeSnapshot ConfigSnapshot `json:"before_snapshot"`
	AfterSnapshot  ConfigSnapshot `json:"after_snapshot"`
	Changes        map[string]any `json:"changes"`
	Reason         string         `json:"reason"`
	AppliedBy      string         `json:"applied_by"`
	RolledBack     bool           `json:"rolled_back"`
}
