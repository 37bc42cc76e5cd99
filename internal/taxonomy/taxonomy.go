// Package taxonomy loads the term tables that drive specialization detection,
// outlet focus classification, pre-filtering and score adjustments.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

var ErrNoSpecializations = errors.New("taxonomy has no specializations")

type Taxonomy struct {
	Version                  int                `yaml:"version"`
	Specializations          []Specialization   `yaml:"specializations"`
	Focus                    []FocusCategory    `yaml:"focus"`
	FocusThreshold           float64            `yaml:"focus_threshold"`
	LocationWeights          LocationWeights    `yaml:"location_weights"`
	Thresholds               Thresholds         `yaml:"thresholds"`
	CommercialFocus          []string           `yaml:"commercial_focus"`
	GenericTerms             []string           `yaml:"generic_terms"`
	BroadOutlets             []string           `yaml:"broad_outlets"`
	BusinessOutlets          []string           `yaml:"business_outlets"`
	FintechOutlets           []string           `yaml:"fintech_outlets"`
	UniversalExcludedOutlets []string           `yaml:"universal_excluded_outlets"`
	OffTopic                 []OffTopicCategory `yaml:"off_topic"`
	Multipliers              Multipliers        `yaml:"multipliers"`
	Prestige                 PrestigeTable      `yaml:"prestige"`
	ContentTypes             []ContentType      `yaml:"content_types"`
	Formats                  []string           `yaml:"formats"`
	Styles                   []string           `yaml:"styles"`

	specIndex  map[string]int
	focusIndex map[string]int
}

type Specialization struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Technical bool   `yaml:"technical"`
	// Strict specializations get the full pre-filter instead of the universal exclusion list.
	Strict          bool               `yaml:"strict"`
	Threshold       float64            `yaml:"threshold"`
	Terms           []string           `yaml:"terms"`
	Compatible      map[string]float64 `yaml:"compatible"`
	Incompatible    []string           `yaml:"incompatible"`
	Irrelevant      []string           `yaml:"irrelevant"`
	ExcludedOutlets []string           `yaml:"excluded_outlets"`
}

type FocusCategory struct {
	Name       string   `yaml:"name"`
	Indicators []string `yaml:"indicators"`
}

type LocationWeights struct {
	Name     float64 `yaml:"name"`
	Keywords float64 `yaml:"keywords"`
	Audience float64 `yaml:"audience"`
	Section  float64 `yaml:"section"`
	Other    float64 `yaml:"other"`
}

type Thresholds struct {
	Default float64 `yaml:"default"`
}

type OffTopicCategory struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

type Multipliers struct {
	Industry  FieldMultipliers     `yaml:"industry"`
	Keywords  FieldMultipliers     `yaml:"keywords"`
	Aggregate AggregateMultipliers `yaml:"aggregate"`
}

// FieldMultipliers is the compatibility cascade applied inside a single field scorer.
type FieldMultipliers struct {
	ExactFocus               float64 `yaml:"exact_focus"`
	IncompatibleFocus        float64 `yaml:"incompatible_focus"`
	IrrelevantTerms          float64 `yaml:"irrelevant_terms"`
	GenericTerm              float64 `yaml:"generic_term"`
	CommercialUnderTechnical float64 `yaml:"commercial_under_technical"`
	BroadOutlet              float64 `yaml:"broad_outlet"`
	BusinessOutletTechnical  float64 `yaml:"business_outlet_technical"`
	BusinessOutletOther      float64 `yaml:"business_outlet_other"`
	LearnedSpecialization    float64 `yaml:"learned_specialization"`
}

type AggregateMultipliers struct {
	IncompatibleFocus float64        `yaml:"incompatible_focus"`
	OffTopicOutlet    float64        `yaml:"off_topic_outlet"`
	BusinessOutlet    float64        `yaml:"business_outlet"`
	FintechOutlet     float64        `yaml:"fintech_outlet"`
	ConfidenceBoost   float64        `yaml:"confidence_boost"`
	OffTopicTiers     []OffTopicTier `yaml:"off_topic_tiers"`
}

type OffTopicTier struct {
	MinHits    int     `yaml:"min_hits"`
	Multiplier float64 `yaml:"multiplier"`
}

type PrestigeTable struct {
	High    float64 `yaml:"high"`
	Medium  float64 `yaml:"medium"`
	Low     float64 `yaml:"low"`
	Default float64 `yaml:"default"`
}

type ContentType struct {
	Match  string `yaml:"match"`
	Phrase string `yaml:"phrase"`
}

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy document from path. An empty path yields the embedded default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Parse(defaultDocument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a taxonomy document. Terms are lowercased.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding taxonomy: %w", err)
	}

	t.normalize()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Taxonomy) normalize() {
	t.specIndex = make(map[string]int, len(t.Specializations))
	for i := range t.Specializations {
		s := &t.Specializations[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Terms = lowerAll(s.Terms)
		s.Incompatible = lowerAll(s.Incompatible)
		s.Irrelevant = lowerAll(s.Irrelevant)
		s.ExcludedOutlets = lowerAll(s.ExcludedOutlets)
		if s.Threshold == 0 {
			s.Threshold = t.Thresholds.Default
		}
		if s.Label == "" {
			s.Label = s.Name
		}
		t.specIndex[s.Name] = i
	}

	t.focusIndex = make(map[string]int, len(t.Focus))
	for i := range t.Focus {
		f := &t.Focus[i]
		f.Name = strings.TrimSpace(f.Name)
		f.Indicators = lowerAll(f.Indicators)
		t.focusIndex[f.Name] = i
	}

	for i := range t.OffTopic {
		t.OffTopic[i].Terms = lowerAll(t.OffTopic[i].Terms)
	}
	for i := range t.ContentTypes {
		t.ContentTypes[i].Match = strings.ToLower(strings.TrimSpace(t.ContentTypes[i].Match))
	}

	t.GenericTerms = lowerAll(t.GenericTerms)
	t.BroadOutlets = lowerAll(t.BroadOutlets)
	t.BusinessOutlets = lowerAll(t.BusinessOutlets)
	t.FintechOutlets = lowerAll(t.FintechOutlets)
	t.UniversalExcludedOutlets = lowerAll(t.UniversalExcludedOutlets)
	t.Formats = lowerAll(t.Formats)
	t.Styles = lowerAll(t.Styles)
}

// Validate reports the first structural problem of the document.
func (t *Taxonomy) Validate() error {
	if t.Version < 1 {
		return fmt.Errorf("unsupported taxonomy version %d", t.Version)
	}
	if len(t.Specializations) == 0 {
		return ErrNoSpecializations
	}
	if t.FocusThreshold <= 0 {
		return fmt.Errorf("focus_threshold must be positive, got %v", t.FocusThreshold)
	}

	seen := make(map[string]bool, len(t.Specializations))
	for _, s := range t.Specializations {
		if s.Name == "" {
			return errors.New("specialization without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate specialization %q", s.Name)
		}
		seen[s.Name] = true

		if len(s.Terms) == 0 {
			return fmt.Errorf("specialization %q has no terms", s.Name)
		}
		if s.Threshold <= 0 || s.Threshold > 1 {
			return fmt.Errorf("specialization %q: threshold %v out of (0,1]", s.Name, s.Threshold)
		}
		for focus, m := range s.Compatible {
			if !t.HasFocus(focus) {
				return fmt.Errorf("specialization %q: unknown compatible focus %q", s.Name, focus)
			}
			if m <= 0 || m > 1 {
				return fmt.Errorf("specialization %q: compatible multiplier for %q out of (0,1]", s.Name, focus)
			}
		}
		for _, focus := range s.Incompatible {
			if !t.HasFocus(focus) {
				return fmt.Errorf("specialization %q: unknown incompatible focus %q", s.Name, focus)
			}
		}
	}

	for _, focus := range t.CommercialFocus {
		if !t.HasFocus(focus) {
			return fmt.Errorf("unknown commercial focus %q", focus)
		}
	}

	checks := map[string]float64{
		"location_weights.name":                    t.LocationWeights.Name,
		"location_weights.keywords":                t.LocationWeights.Keywords,
		"location_weights.audience":                t.LocationWeights.Audience,
		"location_weights.section":                 t.LocationWeights.Section,
		"location_weights.other":                   t.LocationWeights.Other,
		"multipliers.aggregate.incompatible_focus": t.Multipliers.Aggregate.IncompatibleFocus,
		"multipliers.aggregate.off_topic_outlet":   t.Multipliers.Aggregate.OffTopicOutlet,
		"multipliers.aggregate.business_outlet":    t.Multipliers.Aggregate.BusinessOutlet,
		"multipliers.aggregate.fintech_outlet":     t.Multipliers.Aggregate.FintechOutlet,
		"multipliers.aggregate.confidence_boost":   t.Multipliers.Aggregate.ConfidenceBoost,
	}
	for scope, fm := range map[string]FieldMultipliers{"industry": t.Multipliers.Industry, "keywords": t.Multipliers.Keywords} {
		prefix := "multipliers." + scope + "."
		checks[prefix+"exact_focus"] = fm.ExactFocus
		checks[prefix+"incompatible_focus"] = fm.IncompatibleFocus
		checks[prefix+"irrelevant_terms"] = fm.IrrelevantTerms
		checks[prefix+"generic_term"] = fm.GenericTerm
		checks[prefix+"commercial_under_technical"] = fm.CommercialUnderTechnical
		checks[prefix+"broad_outlet"] = fm.BroadOutlet
		checks[prefix+"business_outlet_technical"] = fm.BusinessOutletTechnical
		checks[prefix+"business_outlet_other"] = fm.BusinessOutletOther
		checks[prefix+"learned_specialization"] = fm.LearnedSpecialization
	}
	for i, tier := range t.Multipliers.Aggregate.OffTopicTiers {
		if tier.MinHits < 1 {
			return fmt.Errorf("off_topic_tiers[%d]: min_hits must be at least 1", i)
		}
		if i > 0 && tier.MinHits >= t.Multipliers.Aggregate.OffTopicTiers[i-1].MinHits {
			return fmt.Errorf("off_topic_tiers must be ordered by descending min_hits")
		}
		checks[fmt.Sprintf("multipliers.aggregate.off_topic_tiers[%d]", i)] = tier.Multiplier
	}
	for key, v := range checks {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", key, v)
		}
	}

	if t.Thresholds.Default <= 0 || t.Thresholds.Default > 1 {
		return fmt.Errorf("thresholds.default %v out of (0,1]", t.Thresholds.Default)
	}

	return nil
}

// Specialization returns the named specialization.
func (t *Taxonomy) Specialization(name string) (*Specialization, bool) {
	i, ok := t.specIndex[name]
	if !ok {
		return nil, false
	}
	return &t.Specializations[i], true
}

func (t *Taxonomy) HasFocus(name string) bool {
	_, ok := t.focusIndex[name]
	return ok
}

// Threshold returns the minimal score a match needs under the given specialization.
func (t *Taxonomy) Threshold(specialization string) float64 {
	if s, ok := t.Specialization(specialization); ok {
		return s.Threshold
	}
	return t.Thresholds.Default
}

func (t *Taxonomy) IsCommercialFocus(focus string) bool {
	return contains(t.CommercialFocus, focus)
}

// PrestigeScore maps a prestige tier to its score.
func (t *Taxonomy) PrestigeScore(tier string) float64 {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "high":
		return t.Prestige.High
	case "medium":
		return t.Prestige.Medium
	case "low":
		return t.Prestige.Low
	default:
		return t.Prestige.Default
	}
}

// OffTopicHits counts the off-topic terms found in text across all categories.
func (t *Taxonomy) OffTopicHits(text string) int {
	text = strings.ToLower(text)
	hits := 0
	for _, category := range t.OffTopic {
		for _, term := range category.Terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
	}
	return hits
}

// OffTopicMultiplier returns the tier multiplier for the given number of hits, or 1.
func (t *Taxonomy) OffTopicMultiplier(hits int) float64 {
	for _, tier := range t.Multipliers.Aggregate.OffTopicTiers {
		if hits >= tier.MinHits {
			return tier.Multiplier
		}
	}
	return 1
}

// ContentPhrase describes the section by the first content type it mentions.
func (t *Taxonomy) ContentPhrase(section string) (string, bool) {
	section = strings.ToLower(section)
	for _, ct := range t.ContentTypes {
		if ct.Match != "" && strings.Contains(section, ct.Match) {
			return ct.Phrase, true
		}
	}
	return "", false
}

func (s *Specialization) IsIncompatible(focus string) bool {
	return contains(s.Incompatible, focus)
}

// CompatibleMultiplier returns the partial multiplier for a compatible focus.
func (s *Specialization) CompatibleMultiplier(focus string) (float64, bool) {
	m, ok := s.Compatible[focus]
	return m, ok
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
