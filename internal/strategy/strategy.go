// Package strategy defines the Strategy interface for trading strategies,
// a Registry for managing them, and the backtest pipeline that turns a bar
// series into an equity curve and performance metrics.
package strategy

import (
	"sort"

	"tradehub/internal/domain"
)

// Strategy is the interface that all signal-generating strategies implement.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Signals returns one SignalRow per bar, time-aligned with bars.
	Signals(bars []domain.Bar) []domain.SignalRow
}

// Factory builds a Strategy configured from backtest parameters.
type Factory func(p Params) Strategy

// Registry holds a named collection of strategy factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a strategy factory under name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get retrieves a factory by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
