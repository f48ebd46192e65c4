// Package circuitbreaker wraps sony/gobreaker behind a small named-instance
// manager, grounded on the circuitbreaker.NewManager(gobreaker.Settings{...})
// shape used in the pack's notification integration suite: one Settings
// struct shared by every breaker, one *gobreaker.CircuitBreaker per name,
// created lazily on first use.
package circuitbreaker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/migrationguard/core/pkg/models"
)

// Manager owns one gobreaker.CircuitBreaker per named dependency (llm,
// support, search_index, event_bus, ...). A breaker is built from the base
// Settings with the name substituted in, unless WithSettings installed
// per-name Settings for it.
type Manager struct {
	mu       sync.Mutex
	base     gobreaker.Settings
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewManager builds a Manager. base.Name is ignored — each named breaker
// gets its own Settings.Name so OnStateChange callbacks can tell them apart.
func NewManager(base gobreaker.Settings) *Manager {
	return &Manager{
		base:     base,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   slog.Default().With("component", "circuitbreaker"),
	}
}

// WithSettings overrides the per-name Settings used to lazily create name's
// breaker, before it has been used for the first time.
func (m *Manager) WithSettings(name string, settings gobreaker.Settings) {
	settings.Name = name
	if settings.OnStateChange == nil {
		settings.OnStateChange = m.logStateChange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakers[name] = gobreaker.NewCircuitBreaker(settings)
}

func (m *Manager) breaker(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}
	settings := m.base
	settings.Name = name
	if settings.OnStateChange == nil {
		settings.OnStateChange = m.logStateChange
	}
	b := gobreaker.NewCircuitBreaker(settings)
	m.breakers[name] = b
	return b
}

func (m *Manager) logStateChange(name string, from, to gobreaker.State) {
	m.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
}

// State reports the current state of the named breaker ("closed", "open",
// "half-open"), creating it with the base Settings if it does not yet exist.
func (m *Manager) State(name string) string {
	return m.breaker(name).State().String()
}

// Execute runs fn through the named breaker. Errors returned by fn that are
// classified transient (models.IsTransient) count toward the breaker's
// failure threshold; non-transient errors still fail the call but are not
// tripped on repeatedly, matching §4.11's "don't trip on validation errors"
// requirement.
func Execute[T any](ctx context.Context, m *Manager, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	b := m.breaker(name)

	var realErr error
	result, err := b.Execute(func() (interface{}, error) {
		v, callErr := fn(ctx)
		if callErr != nil && !models.IsTransient(callErr) {
			// Non-transient failures still reach the caller as an error but
			// are reported to gobreaker as a success so permanent errors
			// (bad input, not-found) never trip the breaker.
			realErr = callErr
			return v, nil
		}
		return v, callErr
	})
	if realErr != nil {
		var zero T
		return zero, realErr
	}
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := result.(T)
	return typed, nil
}

// ErrOpen is the same value as gobreaker.ErrOpenState, which Execute returns
// unwrapped when the named breaker is open; callers use this to route straight to their
// fallback without waiting out gobreaker's half-open probe window.
var ErrOpen = gobreaker.ErrOpenState
