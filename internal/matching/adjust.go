package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

// Scope says where an adjustment rule runs.
type Scope string

const (
	ScopeIndustry  Scope = "industry"
	ScopeKeywords  Scope = "keywords"
	ScopeAggregate Scope = "aggregate"
)

// Adjustment is a fired rule: its multiplier and a short reason that can be
// shown to the user.
type Adjustment struct {
	Rule       string  `json:"rule"`
	Scope      Scope   `json:"scope"`
	Multiplier float64 `json:"multiplier"`
	Reason     string  `json:"reason,omitempty"`
}

// subject is what the rules look at for one outlet and one query.
type subject struct {
	tax *taxonomy.Taxonomy
	// specialty is nil when no specialization was detected.
	specialty *taxonomy.Specialization
	focus     string
	name      string
	keywords  []string
	text      string
	topics    string
	industry  string
}

type rule struct {
	name   string
	scopes []Scope
	// anySpecialization rules also run when no specialization was detected.
	anySpecialization bool
	eval              func(s *subject, scope Scope) (float64, string, bool)
}

var (
	fieldScopes = []Scope{ScopeIndustry, ScopeKeywords}
	allScopes   = []Scope{ScopeIndustry, ScopeKeywords, ScopeAggregate}
)

// rules run in declaration order within each scope.
var rules = []rule{
	{name: "exact_focus", scopes: fieldScopes, eval: exactFocus},
	{name: "compatible_focus", scopes: fieldScopes, eval: compatibleFocus},
	{name: "incompatible_focus", scopes: allScopes, eval: incompatibleFocus},
	{name: "irrelevant_terms", scopes: fieldScopes, eval: irrelevantTerms},
	{name: "generic_terms", scopes: fieldScopes, eval: genericTerms},
	{name: "commercial_under_technical", scopes: fieldScopes, eval: commercialUnderTechnical},
	{name: "broad_outlet", scopes: fieldScopes, eval: broadOutlet},
	{name: "business_outlet", scopes: allScopes, eval: businessOutlet},
	{name: "excluded_outlet", scopes: []Scope{ScopeAggregate}, eval: excludedOutlet},
	{name: "fintech_outlet", scopes: []Scope{ScopeAggregate}, eval: fintechOutlet},
	{name: "off_topic_keywords", scopes: []Scope{ScopeAggregate}, eval: offTopicKeywords},
	{name: "learned_specialization", scopes: fieldScopes, anySpecialization: true, eval: learnedSpecialization},
}

// focusRules produce the specialization sentence of the explanation.
var focusRules = map[string]bool{
	"exact_focus":        true,
	"compatible_focus":   true,
	"incompatible_focus": true,
}

// adjust runs every rule of the scope against score.
func adjust(s *subject, scope Scope, score float64) (float64, []Adjustment) {
	var fired []Adjustment
	for _, r := range rules {
		if !hasScope(r.scopes, scope) {
			continue
		}
		if s.specialty == nil && !r.anySpecialization {
			continue
		}
		m, reason, ok := r.eval(s, scope)
		if !ok || m == 1 {
			continue
		}
		score *= m
		fired = append(fired, Adjustment{Rule: r.name, Scope: scope, Multiplier: m, Reason: reason})
	}
	return score, fired
}

func hasScope(scopes []Scope, scope Scope) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func fieldSet(s *subject, scope Scope) taxonomy.FieldMultipliers {
	if scope == ScopeKeywords {
		return s.tax.Multipliers.Keywords
	}
	return s.tax.Multipliers.Industry
}

func exactFocus(s *subject, scope Scope) (float64, string, bool) {
	if s.focus == "" || s.focus != s.specialty.Name {
		return 0, "", false
	}
	return fieldSet(s, scope).ExactFocus, fmt.Sprintf("Specialist %s outlet", s.specialty.Label), true
}

func compatibleFocus(s *subject, _ Scope) (float64, string, bool) {
	m, ok := s.specialty.CompatibleMultiplier(s.focus)
	if !ok {
		return 0, "", false
	}
	return m, fmt.Sprintf("Covers %s from a %s angle", s.specialty.Label, focusLabel(s.tax, s.focus)), true
}

func incompatibleFocus(s *subject, scope Scope) (float64, string, bool) {
	if !s.specialty.IsIncompatible(s.focus) {
		return 0, "", false
	}
	m := fieldSet(s, scope).IncompatibleFocus
	if scope == ScopeAggregate {
		m = s.tax.Multipliers.Aggregate.IncompatibleFocus
	}
	return m, fmt.Sprintf("%s focus is unrelated to %s", focusLabel(s.tax, s.focus), s.specialty.Label), true
}

func irrelevantTerms(s *subject, scope Scope) (float64, string, bool) {
	term, ok := textutil.FirstContained(s.text, s.specialty.Irrelevant)
	if !ok {
		return 0, "", false
	}
	return fieldSet(s, scope).IrrelevantTerms, fmt.Sprintf("Covers unrelated topics such as %s", term), true
}

func genericTerms(s *subject, scope Scope) (float64, string, bool) {
	var generic []string
	for _, keyword := range s.keywords {
		for _, term := range s.tax.GenericTerms {
			if keyword == term {
				generic = append(generic, keyword)
				break
			}
		}
	}
	if len(generic) == 0 {
		return 0, "", false
	}
	m := math.Pow(fieldSet(s, scope).GenericTerm, float64(len(generic)))
	return m, fmt.Sprintf("Broad keywords (%s)", strings.Join(generic, ", ")), true
}

func commercialUnderTechnical(s *subject, scope Scope) (float64, string, bool) {
	if !s.specialty.Technical || !s.tax.IsCommercialFocus(s.focus) {
		return 0, "", false
	}
	return fieldSet(s, scope).CommercialUnderTechnical,
		fmt.Sprintf("Commercial %s focus for a technical pitch", focusLabel(s.tax, s.focus)), true
}

func broadOutlet(s *subject, scope Scope) (float64, string, bool) {
	if _, ok := textutil.FirstContained(s.name, s.tax.BroadOutlets); !ok {
		return 0, "", false
	}
	return fieldSet(s, scope).BroadOutlet, "General-interest outlet", true
}

func businessOutlet(s *subject, scope Scope) (float64, string, bool) {
	if _, ok := textutil.FirstContained(s.name, s.tax.BusinessOutlets); !ok {
		return 0, "", false
	}

	const reason = "General business outlet"
	switch {
	case scope == ScopeAggregate && s.specialty.Strict:
		return s.tax.Multipliers.Aggregate.BusinessOutlet, reason, true
	case scope == ScopeAggregate:
		return 0, "", false
	case s.specialty.Technical:
		return fieldSet(s, scope).BusinessOutletTechnical, reason, true
	default:
		return fieldSet(s, scope).BusinessOutletOther, reason, true
	}
}

func excludedOutlet(s *subject, _ Scope) (float64, string, bool) {
	if _, ok := textutil.FirstContained(s.name, s.specialty.ExcludedOutlets); !ok {
		return 0, "", false
	}
	return s.tax.Multipliers.Aggregate.OffTopicOutlet, fmt.Sprintf("Outlet does not cover %s", s.specialty.Label), true
}

func fintechOutlet(s *subject, _ Scope) (float64, string, bool) {
	if s.specialty.Name == "fintech" {
		return 0, "", false
	}
	if _, ok := textutil.FirstContained(s.name, s.tax.FintechOutlets); !ok {
		return 0, "", false
	}
	return s.tax.Multipliers.Aggregate.FintechOutlet, "Finance trade outlet", true
}

func offTopicKeywords(s *subject, _ Scope) (float64, string, bool) {
	if !s.specialty.Technical {
		return 0, "", false
	}
	hits := s.tax.OffTopicHits(strings.Join(s.keywords, ", "))
	if hits == 0 {
		return 0, "", false
	}
	return s.tax.OffTopicMultiplier(hits), fmt.Sprintf("%d off-topic keywords", hits), true
}

func learnedSpecialization(s *subject, scope Scope) (float64, string, bool) {
	if s.industry == "" || s.topics == "" || !strings.Contains(s.topics, s.industry) {
		return 0, "", false
	}
	return fieldSet(s, scope).LearnedSpecialization, "Established coverage of this industry", true
}

// suppressed reports whether an aggregate rule lowered the score.
func suppressed(adjustments []Adjustment) bool {
	for _, a := range adjustments {
		if a.Scope == ScopeAggregate && a.Multiplier < 1 {
			return true
		}
	}
	return false
}
