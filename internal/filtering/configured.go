package filtering

import (
	"context"
	"strings"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

type configuredFilter struct {
	toggle
	names map[string]bool
}

// NewConfiguredExclusions creates a filter that removes outlets listed by name in the configuration.
// It applies whatever the specialization.
func NewConfiguredExclusions(names []string) Filter {
	f := &configuredFilter{names: make(map[string]bool, len(names))}
	for _, name := range names {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			f.names[name] = true
		}
	}
	return f
}

func (f *configuredFilter) Name() string { return "configured_exclusions" }

func (f *configuredFilter) Validate(*Config) error { return nil }

func (f *configuredFilter) Apply(_ context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	if len(f.names) == 0 {
		return unchanged(o)
	}
	return drop(deps, f.Name(), o, func(item *outlet.Outlet) bool {
		return f.names[strings.ToLower(item.Name)]
	})
}

func (f *configuredFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"outlets": strings.Join(sortedKeys(f.names), ", ")})
}
