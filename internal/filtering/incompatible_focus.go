package filtering

import (
	"context"
	"errors"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

type incompatibleFocusFilter struct {
	toggle
}

// NewIncompatibleFocus creates a filter that removes outlets whose focus is
// incompatible with a strict specialization.
func NewIncompatibleFocus() Filter {
	return &incompatibleFocusFilter{}
}

func (f *incompatibleFocusFilter) Name() string { return "incompatible_focus" }

func (f *incompatibleFocusFilter) Validate(*Config) error { return nil }

func (f *incompatibleFocusFilter) Apply(_ context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	specialty, ok := strictSpecialization(deps)
	if !ok {
		return unchanged(o)
	}
	if deps.Focus == nil {
		return nil, Step{}, errors.New("focus classifier is required")
	}
	return drop(deps, f.Name(), o, func(item *outlet.Outlet) bool {
		focus := deps.Focus(item)
		return focus != "" && specialty.IsIncompatible(focus)
	})
}

func (f *incompatibleFocusFilter) Status() Status {
	return f.status(f.Name(), nil)
}
