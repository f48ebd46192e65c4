package safemode

// criticalErrorReasons maps the closed set of error types that always trip
// safe mode outright to their activation Reason, ported from
// SafeModeDetector.critical_error_types.
var criticalErrorReasons = map[string]Reason{
	"database_connection_failure": ReasonDatabaseFailure,
	"event_bus_connection_failure": ReasonEventBusFailure,
	"llm_api_failure":              ReasonLLMAPIFailure,
	"data_corruption":              ReasonCriticalError,
}

const (
	defaultConfidenceDriftThreshold = 0.05
	defaultExcessiveActionsThreshold = 20
)

// Detector evaluates trip conditions and activates m when they are met.
// Grounded on SafeModeDetector in safe_mode.py.
type Detector struct {
	manager *Manager
}

// NewDetector wraps manager with the standard set of trip checks.
func NewDetector(manager *Manager) *Detector {
	return &Detector{manager: manager}
}

// CheckCriticalError activates safe mode if errorType is one of the
// closed critical error types. Returns whether it tripped.
func (d *Detector) CheckCriticalError(errorType, errorMessage string, context map[string]any) bool {
	reason, ok := criticalErrorReasons[errorType]
	if !ok {
		return false
	}
	ctx := mergeContext(context, map[string]any{
		"error_type":    errorType,
		"error_message": errorMessage,
	})
	d.manager.Activate(reason, ctx)
	return true
}

// CheckConfidenceDrift activates safe mode if the absolute difference
// between expectedAccuracy and actualAccuracy exceeds threshold. A
// threshold <= 0 uses the default of 0.05.
func (d *Detector) CheckConfidenceDrift(expectedAccuracy, actualAccuracy, threshold float64) bool {
	if threshold <= 0 {
		threshold = defaultConfidenceDriftThreshold
	}
	drift := expectedAccuracy - actualAccuracy
	if drift < 0 {
		drift = -drift
	}
	if drift <= threshold {
		return false
	}
	d.manager.Activate(ReasonConfidenceDrift, map[string]any{
		"expected_accuracy": expectedAccuracy,
		"actual_accuracy":   actualAccuracy,
		"drift":             drift,
		"threshold":         threshold,
	})
	return true
}

// CheckExcessiveActions activates safe mode if count exceeds threshold
// (default 20) within the given window. windowMinutes is carried through
// into the activation context for operator visibility only.
func (d *Detector) CheckExcessiveActions(actionType, merchantID string, count, windowMinutes, threshold int) bool {
	if threshold <= 0 {
		threshold = defaultExcessiveActionsThreshold
	}
	if windowMinutes <= 0 {
		windowMinutes = 5
	}
	if count <= threshold {
		return false
	}
	d.manager.Activate(ReasonExcessiveActions, map[string]any{
		"action_type":     actionType,
		"merchant_id":     merchantID,
		"count":           count,
		"window_minutes":  windowMinutes,
		"threshold":       threshold,
	})
	return true
}

// CheckAnomalousBehavior unconditionally trips safe mode; any call to it
// represents behavior a caller has already judged anomalous.
func (d *Detector) CheckAnomalousBehavior(behaviorType, description string, context map[string]any) bool {
	ctx := mergeContext(context, map[string]any{
		"behavior_type": behaviorType,
		"description":   description,
	})
	d.manager.Activate(ReasonAnomalousBehavior, ctx)
	return true
}

func mergeContext(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
