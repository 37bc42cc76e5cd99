// Package filtering removes outlets that cannot fit the detected
// specialization before they are scored.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
)

// Filter represents a single pre-filter step applied to outlets.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error)
}

// FocusFunc returns the classified focus of an outlet, or "" for none.
type FocusFunc func(*outlet.Outlet) string

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger   *zap.Logger
	Taxonomy *taxonomy.Taxonomy
	Focus    FocusFunc
	// Specialization detected for the pitch; empty means none.
	Specialization string
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	// MinOffTopicHits is the number of off-topic keyword hits that removes an outlet.
	MinOffTopicHits int
	// ExcludedOutlets are outlet names the operator never wants to see.
	ExcludedOutlets []string
	// Disabled names steps that are switched off.
	Disabled []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

const DefaultMinOffTopicHits = 2

// Steps returns the pre-filter pipeline in execution order.
func Steps(cfg *Config) []Filter {
	if cfg == nil {
		cfg = &Config{}
	}
	steps := []Filter{
		NewConfiguredExclusions(cfg.ExcludedOutlets),
		NewExcludedNames(),
		NewOffTopicKeywords(cfg.MinOffTopicHits),
		NewIncompatibleFocus(),
		NewUniversalExclusions(),
	}
	for _, name := range cfg.Disabled {
		DisableByName(steps, name, "disabled in configuration")
	}
	return steps
}

// StepNames lists the names of all pre-filter steps.
func StepNames() []string {
	steps := Steps(nil)
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name())
	}
	return names
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially on a copy of the catalog.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, o *outlet.Outlets) (*outlet.Outlets, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	current := o.Clone()
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, deps, current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.String("specialization", deps.Specialization),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		current = next
	}

	return current, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle is embedded by filters to implement Disable/IsEnabled.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

// strictSpecialization returns the detected specialization when the full
// pre-filter applies to it.
func strictSpecialization(deps Deps) (*taxonomy.Specialization, bool) {
	if deps.Specialization == "" || deps.Taxonomy == nil {
		return nil, false
	}
	specialty, ok := deps.Taxonomy.Specialization(deps.Specialization)
	if !ok || !specialty.Strict {
		return nil, false
	}
	return specialty, true
}

func unchanged(o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	return o, Step{Initial: o.Len(), Left: o.Len()}, nil
}

func drop(deps Deps, step string, o *outlet.Outlets, fn func(*outlet.Outlet) bool) (*outlet.Outlets, Step, error) {
	initial := o.Len()
	excluded := o.ExcludeFunc(fn)
	for _, key := range excluded {
		deps.Logger.Debug("outlet filtered", zap.String("name", step), zap.String("outlet", key))
	}
	return o, Step{Initial: initial, Dropped: len(excluded), Left: o.Len()}, nil
}
