package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

// Query is a pitch: the abstract and the declared target industry.
type Query struct {
	Abstract string `json:"abstract"`
	Industry string `json:"industry"`
}

// Result is one scored outlet.
type Result struct {
	Outlet *outlet.Outlet `json:"outlet"`
	// Score is the final score in [0,1].
	Score float64 `json:"score"`
	// Base is the normalized weighted score before aggregate adjustments.
	Base           float64            `json:"base_score"`
	Confidence     string             `json:"confidence"`
	Explanation    string             `json:"explanation"`
	Fields         map[string]float64 `json:"fields"`
	Specialization string             `json:"specialization,omitempty"`
	Focus          string             `json:"focus,omitempty"`
	Adjustments    []Adjustment       `json:"adjustments,omitempty"`
}

// profile is the derived per-outlet state computed once per outlet.
type profile struct {
	outlet.Profile
	focus  string
	topics string
}

// request is a query prepared for scoring.
type request struct {
	query         Query
	abstract      string
	industry      string
	industryWords []string
	text          string
	wordCount     int
	specialty     Specialization
	tspecialty    *taxonomy.Specialization
	weights       Weights
}

func (m *Matcher) newRequest(q Query, specialty Specialization, weights Weights) *request {
	r := &request{
		query:         q,
		abstract:      strings.TrimSpace(q.Abstract),
		industry:      textutil.Normalize(q.Industry),
		industryWords: textutil.Words(q.Industry),
		wordCount:     len(strings.Fields(q.Abstract)),
		specialty:     specialty,
		weights:       weights,
	}
	r.text = strings.TrimSpace(textutil.Normalize(q.Abstract) + " " + r.industry)
	if specialty.Detected() {
		if ts, ok := m.tax.Specialization(specialty.Name); ok {
			r.tspecialty = ts
		}
	}
	return r
}

func (m *Matcher) newCandidate(o *outlet.Outlet, articles map[string][]outlet.Article) *candidate {
	return &candidate{
		outlet:       o,
		profile:      m.profileFor(o),
		articles:     articles[o.Key()],
		keywordText:  textutil.Normalize(o.Keywords),
		audienceText: textutil.Normalize(o.Audience),
		sectionText:  textutil.Normalize(o.SectionName),
	}
}

// score computes the fields and the aggregate score of one candidate. The
// explanation is left empty.
func (m *Matcher) score(ctx context.Context, r *request, c *candidate) Result {
	res := Result{
		Outlet:         c.outlet,
		Fields:         make(map[string]float64, len(Fields)),
		Specialization: r.specialty.Name,
		Focus:          c.profile.focus,
	}

	funcs := m.fieldFuncs()
	var weighted float64
	for _, field := range Fields {
		v := m.safeField(ctx, field, funcs[field], r, c, &res.Adjustments)
		res.Fields[field] = v
		weighted += v * r.weights[field]
	}

	if sum := r.weights.Sum(); sum > 0 {
		res.Base = clamp01(weighted / sum)
	}

	final := res.Base
	if r.tspecialty != nil {
		var fired []Adjustment
		final, fired = adjust(c.subject(m, r), ScopeAggregate, final)
		res.Adjustments = append(res.Adjustments, fired...)
	}
	if !suppressed(res.Adjustments) {
		boost := m.tax.Multipliers.Aggregate.ConfidenceBoost
		final *= boost
		res.Adjustments = append(res.Adjustments, Adjustment{Rule: "confidence_boost", Scope: ScopeAggregate, Multiplier: boost})
	}

	res.Score = clamp01(final)
	res.Confidence = textutil.Percent(res.Score)
	return res
}

// safeField runs one field scorer and maps a panic to 0.
func (m *Matcher) safeField(ctx context.Context, field string, fn fieldFunc, r *request, c *candidate, adj *[]Adjustment) (v float64) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Warn("field scorer failed",
				zap.String("field", field),
				zap.String("outlet", c.outlet.Name),
				zap.String("error", fmt.Sprint(rec)),
			)
			v = 0
		}
	}()
	if fn == nil {
		return 0
	}
	return clamp01(fn(ctx, r, c, adj))
}
