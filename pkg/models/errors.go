package models

import "errors"

// Sentinel errors returned by the model validation helpers above.
var (
	ErrInvalidCategory      = errors.New("root cause analysis: category not in closed set")
	ErrInvalidConfidence    = errors.New("confidence out of range [0,1]")
	ErrEmptyEvidence        = errors.New("root cause analysis: evidence must be non-empty")
	ErrEmptyRecommendations = errors.New("root cause analysis: recommended_actions must be non-empty")
	ErrEmptyReasoning       = errors.New("root cause analysis: reasoning must be non-empty")
	ErrInvalidActionType    = errors.New("decision: action_type not in closed set")
	ErrInvalidRiskLevel     = errors.New("decision: risk_level not in closed set")
	ErrEmptyEstimatedOutcome = errors.New("decision: estimated_outcome must be non-empty")
	ErrApprovalRequired     = errors.New("decision: requires_approval must be true for this risk/confidence/action_type")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedSource    = errors.New("unsupported signal source")
)

// TransientError classifies an error as retryable (network hiccup, timeout,
// 5xx from a downstream) as opposed to permanent (validation, not-found,
// bad credentials). The retry layer (pkg/executor) and circuit breakers
// (pkg/circuitbreaker) use this instead of string-matching error messages.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// Temporary reports true, satisfying the classification interface below.
func (e *TransientError) Temporary() bool { return true }

// Transient wraps err as a TransientError unless it already is one.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

// temporary is satisfied by any error exposing Temporary() bool, including
// net.Error and our own TransientError.
type temporary interface {
	Temporary() bool
}

// IsTransient reports whether err should be retried / counted toward
// circuit-breaker failure thresholds.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}
