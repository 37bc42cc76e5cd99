package matching

import (
	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/textutil"
)

// Specialization is the vertical detected for a query. The zero value means none.
type Specialization struct {
	Name  string   `json:"name"`
	Label string   `json:"label"`
	Terms []string `json:"terms"`
	// Source is "query" or "industry", whichever text triggered the detection.
	Source string `json:"source"`
}

func (s Specialization) Detected() bool { return s.Name != "" }

type Detector struct {
	tax *taxonomy.Taxonomy
}

func NewDetector(tax *taxonomy.Taxonomy) *Detector {
	return &Detector{tax: tax}
}

// Detect scans the query text and then the industry text. The first
// specialization in taxonomy order with a matching term wins.
func (d *Detector) Detect(query, industry string) Specialization {
	if d == nil || d.tax == nil {
		return Specialization{}
	}

	sources := []struct {
		name string
		text string
	}{
		{name: "query", text: textutil.Normalize(query)},
		{name: "industry", text: textutil.Normalize(industry)},
	}

	for _, source := range sources {
		if source.text == "" {
			continue
		}
		for _, specialty := range d.tax.Specializations {
			if terms := textutil.Contained(source.text, specialty.Terms); len(terms) > 0 {
				return Specialization{Name: specialty.Name, Label: specialty.Label, Terms: terms, Source: source.name}
			}
		}
	}
	return Specialization{}
}
