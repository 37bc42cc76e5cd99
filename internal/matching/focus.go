package matching

import (
	"strings"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
)

// Classifier assigns an outlet at most one editorial focus.
type Classifier struct {
	tax *taxonomy.Taxonomy
}

func NewClassifier(tax *taxonomy.Taxonomy) *Classifier {
	return &Classifier{tax: tax}
}

// Classify returns the focus with the highest location-weighted score and
// that score. Each indicator counts once, at its most significant location.
// Focus is "" when no category reaches the taxonomy threshold.
func (c *Classifier) Classify(o *outlet.Outlet) (string, float64) {
	if c == nil || c.tax == nil || o == nil {
		return "", 0
	}

	name := strings.ToLower(o.Name)
	keywords := strings.ToLower(o.Keywords)
	audience := strings.ToLower(o.Audience)
	section := strings.ToLower(o.SectionName)
	all := o.Text()
	lw := c.tax.LocationWeights

	best, bestScore := "", 0.0
	for _, category := range c.tax.Focus {
		var score float64
		for _, indicator := range category.Indicators {
			switch {
			case strings.Contains(name, indicator):
				score += lw.Name
			case strings.Contains(keywords, indicator):
				score += lw.Keywords
			case strings.Contains(audience, indicator):
				score += lw.Audience
			case strings.Contains(section, indicator):
				score += lw.Section
			case strings.Contains(all, indicator):
				score += lw.Other
			}
		}
		if score > bestScore {
			best, bestScore = category.Name, score
		}
	}

	if bestScore < c.tax.FocusThreshold {
		return "", bestScore
	}
	return best, bestScore
}
