package filtering

import (
	"context"
	"sort"
	"strings"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

type universalFilter struct {
	toggle
}

// NewUniversalExclusions creates a filter that removes outlets matching the
// universal exclusion patterns under any non-strict specialization.
func NewUniversalExclusions() Filter {
	return &universalFilter{}
}

func (f *universalFilter) Name() string { return "universal_exclusions" }

func (f *universalFilter) Validate(*Config) error { return nil }

func (f *universalFilter) Apply(_ context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	if deps.Specialization == "" || deps.Taxonomy == nil {
		return unchanged(o)
	}
	if _, strict := strictSpecialization(deps); strict {
		return unchanged(o)
	}
	patterns := deps.Taxonomy.UniversalExcludedOutlets
	return drop(deps, f.Name(), o, func(item *outlet.Outlet) bool {
		_, found := textutil.FirstContained(strings.ToLower(item.Name), patterns)
		return found
	})
}

func (f *universalFilter) Status() Status {
	return f.status(f.Name(), nil)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
