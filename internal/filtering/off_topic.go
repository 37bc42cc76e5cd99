package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

type offTopicFilter struct {
	toggle
	minHits int
}

// NewOffTopicKeywords creates a filter that removes outlets whose keywords hit
// at least minHits off-topic terms under a strict specialization.
func NewOffTopicKeywords(minHits int) Filter {
	if minHits == 0 {
		minHits = DefaultMinOffTopicHits
	}
	return &offTopicFilter{minHits: minHits}
}

func (f *offTopicFilter) Name() string { return "off_topic_keywords" }

func (f *offTopicFilter) Validate(*Config) error {
	if f.minHits < 1 {
		return fmt.Errorf("minimum off-topic hits must be at least 1, got %d", f.minHits)
	}
	return nil
}

func (f *offTopicFilter) Apply(_ context.Context, deps Deps, o *outlet.Outlets) (*outlet.Outlets, Step, error) {
	if _, ok := strictSpecialization(deps); !ok {
		return unchanged(o)
	}
	return drop(deps, f.Name(), o, func(item *outlet.Outlet) bool {
		return deps.Taxonomy.OffTopicHits(item.Keywords) >= f.minHits
	})
}

func (f *offTopicFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"min_hits": strconv.Itoa(f.minHits)})
}
