package matching

import (
	"context"
	"math"
	"strings"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

const (
	semanticShare = 0.6
	overlapShare  = 0.4
)

// fieldFunc computes one field score. Adjustments it applies are appended to adj.
type fieldFunc func(ctx context.Context, r *request, c *candidate, adj *[]Adjustment) float64

func (m *Matcher) fieldFuncs() map[string]fieldFunc {
	return map[string]fieldFunc{
		FieldIndustry:     m.industryMatch,
		FieldKeywords:     m.keywordRelevance,
		FieldNews:         m.newsMatch,
		FieldAudience:     audienceMatch,
		FieldContentType:  m.contentCompatibility,
		FieldRequirements: requirementsMatch,
		FieldExpertise:    expertiseMatch,
		FieldPrestige:     m.prestige,
	}
}

func (m *Matcher) industryMatch(_ context.Context, r *request, c *candidate, adj *[]Adjustment) float64 {
	var score float64
	if len(r.industryWords) > 0 {
		if containsAnyWord(c.keywordText, r.industryWords) {
			score += 0.7
		}
		if containsAnyWord(c.audienceText, r.industryWords) {
			score += 0.3
		}
		if containsAnyWord(c.sectionText, r.industryWords) {
			score += 0.2
		}
	}

	score, fired := adjust(c.subject(m, r), ScopeIndustry, score)
	*adj = append(*adj, fired...)
	return clamp01(score)
}

// keywordRelevance blends semantic similarity with literal overlap. Without a
// semantic backend the overlap stands in for both terms.
func (m *Matcher) keywordRelevance(ctx context.Context, r *request, c *candidate, adj *[]Adjustment) float64 {
	if c.outlet.Keywords == "" || r.abstract == "" {
		return 0
	}

	overlap := textutil.Jaccard(r.abstract, c.outlet.Keywords)
	semantic := m.similarity(ctx, r.abstract, c.outlet.Keywords)

	multiplier, fired := adjust(c.subject(m, r), ScopeKeywords, 1)
	*adj = append(*adj, fired...)

	return clamp01(semanticShare*clamp01(semantic*multiplier) + overlapShare*clamp01(overlap*multiplier))
}

func (m *Matcher) newsMatch(ctx context.Context, r *request, c *candidate, _ *[]Adjustment) float64 {
	if r.abstract == "" {
		return 0
	}
	var best float64
	for _, article := range c.articles {
		if sim := m.similarity(ctx, r.abstract, article.Text()); sim > best {
			best = sim
		}
	}
	return clamp01(best)
}

func audienceMatch(_ context.Context, r *request, c *candidate, _ *[]Adjustment) float64 {
	if r.industry == "" || !strings.Contains(c.audienceText, r.industry) {
		return 0
	}
	return 0.8
}

func (m *Matcher) contentCompatibility(_ context.Context, _ *request, c *candidate, _ *[]Adjustment) float64 {
	if c.sectionText == "" || !m.sections[c.sectionText] {
		return 0
	}
	return 0.7
}

func requirementsMatch(_ context.Context, r *request, c *candidate, _ *[]Adjustment) float64 {
	req := c.profile.Requirements

	var score float64
	if req.WordCountFits(r.wordCount) {
		score += 0.5
	}
	if _, ok := textutil.FirstContained(r.text, req.Formats); ok {
		score += 0.3
	}
	if _, ok := textutil.FirstContained(r.text, req.Styles); ok {
		score += 0.2
	}
	return clamp01(score)
}

func expertiseMatch(_ context.Context, r *request, c *candidate, _ *[]Adjustment) float64 {
	var score float64
	if _, ok := textutil.FirstContained(r.text, c.profile.Topics); ok {
		score += 0.5
	}
	if c.audienceText != "" && strings.Contains(r.text, c.audienceText) {
		score += 0.3
	}
	if c.sectionText != "" && strings.Contains(r.text, c.sectionText) {
		score += 0.2
	}
	return clamp01(score)
}

func (m *Matcher) prestige(_ context.Context, _ *request, c *candidate, _ *[]Adjustment) float64 {
	return clamp01(m.tax.PrestigeScore(c.outlet.Prestige))
}

func containsAnyWord(text string, words []string) bool {
	if text == "" {
		return false
	}
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// candidate is one outlet prepared for scoring.
type candidate struct {
	outlet       *outlet.Outlet
	profile      *profile
	articles     []outlet.Article
	keywordText  string
	audienceText string
	sectionText  string
}

func (c *candidate) subject(m *Matcher, r *request) *subject {
	return &subject{
		tax:       m.tax,
		specialty: r.tspecialty,
		focus:     c.profile.focus,
		name:      strings.ToLower(c.outlet.Name),
		keywords:  c.profile.Topics,
		text:      strings.Join([]string{c.keywordText, c.audienceText, c.sectionText}, " "),
		topics:    c.profile.topics,
		industry:  r.industry,
	}
}
