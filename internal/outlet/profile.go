package outlet

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

var (
	wordRangePattern = regexp.MustCompile(`(\d[\d,]*)\s*(?:-|–|to)\s*(\d[\d,]*)\s*words`)
	wordMaxPattern   = regexp.MustCompile(`(?:under|up to|maximum of|max\.?|no more than|less than)\s*(\d[\d,]*)\s*words`)
	wordMinPattern   = regexp.MustCompile(`(?:at least|minimum of|min\.?|more than|over)\s*(\d[\d,]*)\s*words`)
	tipSplitPattern  = regexp.MustCompile(`[.;!\n]+`)
)

// Profile is the per-outlet state derived once when the catalog is loaded.
type Profile struct {
	Topics       []string
	Audience     string
	Prestige     string
	Section      string
	Requirements Requirements
	Tips         Tips
	// Expertise is in [0,1].
	Expertise float64
}

// Requirements are extracted from the outlet guidelines. Zero word bounds mean unbounded.
type Requirements struct {
	MinWords int
	MaxWords int
	Formats  []string
	Styles   []string
}

type Tips struct {
	Focus        []string
	Avoid        []string
	Requirements []string
}

// HasWordCount reports whether the guidelines state any word-count bound.
func (r Requirements) HasWordCount() bool {
	return r.MinWords > 0 || r.MaxWords > 0
}

// WordCountFits reports whether n satisfies the stated bounds.
func (r Requirements) WordCountFits(n int) bool {
	if !r.HasWordCount() {
		return false
	}
	if r.MinWords > 0 && n < r.MinWords {
		return false
	}
	if r.MaxWords > 0 && n > r.MaxWords {
		return false
	}
	return true
}

func BuildProfile(o *Outlet, tax *taxonomy.Taxonomy) Profile {
	p := Profile{
		Topics:       textutil.SplitList(o.Keywords),
		Audience:     strings.TrimSpace(o.Audience),
		Prestige:     strings.TrimSpace(o.Prestige),
		Section:      strings.TrimSpace(o.SectionName),
		Requirements: ParseRequirements(o.Guidelines, tax),
		Tips:         ParseTips(o.PitchTips),
	}
	p.Expertise = expertise(p, tax)
	return p
}

// ParseRequirements extracts word-count bounds, formats and styles from guidelines.
func ParseRequirements(guidelines string, tax *taxonomy.Taxonomy) Requirements {
	text := strings.ToLower(textutil.StripHTML(guidelines))

	var req Requirements
	if m := wordRangePattern.FindStringSubmatch(text); m != nil {
		req.MinWords = atoi(m[1])
		req.MaxWords = atoi(m[2])
	} else {
		if m := wordMaxPattern.FindStringSubmatch(text); m != nil {
			req.MaxWords = atoi(m[1])
		}
		if m := wordMinPattern.FindStringSubmatch(text); m != nil {
			req.MinWords = atoi(m[1])
		}
	}
	if req.MinWords > 0 && req.MaxWords > 0 && req.MinWords > req.MaxWords {
		req.MinWords, req.MaxWords = req.MaxWords, req.MinWords
	}

	if tax != nil {
		req.Formats = textutil.Contained(text, tax.Formats)
		req.Styles = textutil.Contained(text, tax.Styles)
	}
	return req
}

// ParseTips sorts pitch-tip sentences into focus areas, things to avoid and hard requirements.
func ParseTips(tips string) Tips {
	var out Tips
	for _, sentence := range tipSplitPattern.Split(strings.ToLower(textutil.StripHTML(tips)), -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		switch {
		case containsAny(sentence, "avoid", "don't", "do not", "never", "no "):
			out.Avoid = append(out.Avoid, sentence)
		case containsAny(sentence, "must", "require", "include", "should"):
			out.Requirements = append(out.Requirements, sentence)
		default:
			out.Focus = append(out.Focus, sentence)
		}
	}
	return out
}

func expertise(p Profile, tax *taxonomy.Taxonomy) float64 {
	diversity := math.Min(float64(len(p.Topics))/10, 1)

	var specific int
	for _, word := range textutil.Words(p.Audience) {
		if !isGeneric(word, tax) {
			specific++
		}
	}
	audience := math.Min(float64(specific)/5, 1)

	prestige := 0.7
	if tax != nil {
		prestige = tax.PrestigeScore(p.Prestige)
	}

	return math.Min(0.4*diversity+0.3*audience+0.3*prestige, 1)
}

func isGeneric(word string, tax *taxonomy.Taxonomy) bool {
	if tax == nil {
		return false
	}
	for _, g := range tax.GenericTerms {
		if g == word {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
