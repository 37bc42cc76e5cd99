package filtering

import (
	"context"
	"strings"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

type excludedNamesFilter struct {
	toggle
}

// NewExcludedNames creates a filter that removes outlets whose name matches the
// excluded outlet patterns of a strict specialization.
func NewExcludedNames() Filter {
	return &excludedNamesFilter{}
}

func (f *excludedNamesFilter) Name() string { return "excluded_names" }

func (f *excludedNamesFilter) Validate(*Config) error { return nil }

func (f *excludedNamesFilter) Apply(_ context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	specialty, ok := strictSpecialization(deps)
	if !ok || len(specialty.ExcludedOutlets) == 0 {
		return unchanged(o)
	}
	return drop(deps, f.Name(), o, func(item *outlet.Outlet) bool {
		_, found := textutil.FirstContained(strings.ToLower(item.Name), specialty.ExcludedOutlets)
		return found
	})
}

func (f *excludedNamesFilter) Status() Status {
	return f.status(f.Name(), nil)
}
