package matching

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

const (
	separator         = " • "
	factorThreshold   = 0.3
	recencyThreshold  = 0.6
	maxSpecificTerms  = 3
	maxKeywordMatches = 2
	maxRuleReasons    = 2
)

// explain builds the rationale of a scored result from the same signals
// used for scoring.
func (m *Matcher) explain(r *request, c *candidate, res Result) string {
	var phrases []string

	if r.specialty.Detected() {
		phrases = append(phrases, m.specializationPhrase(r, c, res))
		phrases = append(phrases, ruleReasons(res.Adjustments)...)
	} else {
		phrases = append(phrases, industryPhrase(r, c)...)
	}

	if factors := matchFactors(res.Fields); factors != "" {
		phrases = append(phrases, factors)
	}
	if audience := m.audiencePhrase(r, c); audience != "" {
		phrases = append(phrases, audience)
	}
	if content := m.contentPhrase(c); content != "" {
		phrases = append(phrases, content)
	}
	if res.Fields[FieldNews] > recencyThreshold {
		phrases = append(phrases, "Recently covered similar stories")
	}
	if c.outlet.AIPartnered {
		phrases = append(phrases, "AI Partnered outlet")
	}

	if len(phrases) == 0 {
		return scoreBand(res.Score)
	}
	return strings.Join(phrases, separator)
}

func (m *Matcher) specializationPhrase(r *request, c *candidate, res Result) string {
	sentence := fmt.Sprintf("Relevant to %s", r.specialty.Label)
	for _, a := range res.Adjustments {
		if focusRules[a.Rule] && a.Reason != "" {
			sentence = a.Reason
			break
		}
	}

	if terms := m.specificTerms(r, c); len(terms) > 0 {
		sentence += " covering " + strings.Join(terms, ", ")
	}
	return sentence
}

// specificTerms are the non-generic words shared by the query and the outlet
// metadata, in outlet order.
func (m *Matcher) specificTerms(r *request, c *candidate) []string {
	outletText := strings.Join([]string{c.keywordText, c.audienceText, c.sectionText}, " ")

	var terms []string
	for _, word := range textutil.SharedWords(outletText, r.text) {
		if m.isGeneric(word) {
			continue
		}
		terms = append(terms, word)
		if len(terms) == maxSpecificTerms {
			break
		}
	}
	return terms
}

func industryPhrase(r *request, c *candidate) []string {
	var phrases []string
	if r.query.Industry != "" {
		phrases = append(phrases, fmt.Sprintf("Fits %s coverage", strings.TrimSpace(r.query.Industry)))
	}

	queryWords := textutil.WordSet(r.text)
	var matches []string
	for _, keyword := range c.profile.Topics {
		words := textutil.Words(keyword)
		if len(words) == 0 {
			continue
		}
		shared := 0
		for _, word := range words {
			if _, ok := queryWords[word]; ok {
				shared++
			}
		}
		if float64(shared)/float64(len(words)) >= 0.5 {
			matches = append(matches, keyword)
		}
		if len(matches) == maxKeywordMatches {
			break
		}
	}
	if len(matches) > 0 {
		phrases = append(phrases, "Keyword matches: "+strings.Join(matches, ", "))
	}
	return phrases
}

// ruleReasons lists the non-focus adjustment reasons that lowered the score.
func ruleReasons(adjustments []Adjustment) []string {
	seen := make(map[string]bool)
	var reasons []string
	for _, a := range adjustments {
		if focusRules[a.Rule] || a.Reason == "" || a.Multiplier >= 1 || seen[a.Reason] {
			continue
		}
		seen[a.Reason] = true
		reasons = append(reasons, a.Reason)
		if len(reasons) == maxRuleReasons {
			break
		}
	}
	return reasons
}

func matchFactors(fields map[string]float64) string {
	var factors []string
	for _, field := range Fields {
		if v := fields[field]; v > factorThreshold {
			factors = append(factors, fmt.Sprintf("%s %s", field, textutil.Percent(v)))
		}
	}
	if len(factors) == 0 {
		return ""
	}
	return "Match factors: " + strings.Join(factors, ", ")
}

func (m *Matcher) audiencePhrase(r *request, c *candidate) string {
	var shared []string
	for _, word := range textutil.SharedWords(c.audienceText, r.text) {
		if !m.isGeneric(word) {
			shared = append(shared, word)
		}
	}
	if len(shared) >= 2 {
		return "Audience overlap: " + strings.Join(shared, ", ")
	}
	if audience := strings.TrimSpace(c.outlet.Audience); audience != "" {
		return "Audience: " + audience
	}
	return ""
}

func (m *Matcher) contentPhrase(c *candidate) string {
	if phrase, ok := m.tax.ContentPhrase(c.sectionText); ok {
		return phrase
	}
	if section := strings.TrimSpace(c.outlet.SectionName); section != "" {
		return "Section: " + section
	}
	return ""
}

func (m *Matcher) isGeneric(word string) bool {
	for _, term := range m.tax.GenericTerms {
		if term == word {
			return true
		}
	}
	return false
}

func scoreBand(score float64) string {
	switch {
	case score >= 0.8:
		return "Excellent match for this pitch"
	case score >= 0.6:
		return "Strong match for this pitch"
	case score >= 0.4:
		return "Good match for this pitch"
	default:
		return "Limited match for this pitch"
	}
}

// focusLabel renders a focus name for people, e.g. "tech_general" -> "Tech General".
func focusLabel(tax *taxonomy.Taxonomy, focus string) string {
	if specialty, ok := tax.Specialization(focus); ok {
		return specialty.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(focus, "_", " "))
}
