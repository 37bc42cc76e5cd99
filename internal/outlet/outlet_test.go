package outlet

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/outlet-matcher/internal/taxonomy"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	records := []map[string]any{
		{
			"id":             "o-1",
			"Outlet Name":    " EdSurge ",
			"Keywords":       "edtech, personalized learning",
			"Audience":       "Education & Policy Leaders",
			"Section Name":   "Opinion",
			"Prestige":       "High",
			"AI Partnered":   "yes",
			"URL":            "https://www.edsurge.com",
			"Editor Contact": "editor@edsurge.example",
		},
		{"Outlet Name": "Dark Reading", "AI Partnered": 0},
		{"Outlet Name": "Wired", "AI Partnered": true, "unknown column": "ignored"},
	}

	outlets, err := Decode(records)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outlets.Len() != 3 {
		t.Fatalf("expected 3 outlets, got %d", outlets.Len())
	}

	first := outlets.Items[0]
	if first.Name != "EdSurge" || first.Keywords != "edtech, personalized learning" || !first.AIPartnered {
		t.Fatalf("unexpected first outlet: %+v", first)
	}
	if first.SectionName != "Opinion" || first.EditorContact != "editor@edsurge.example" {
		t.Fatalf("unexpected section/contact: %+v", first)
	}
	if outlets.Items[1].AIPartnered {
		t.Fatalf("expected 0 to decode as false")
	}
	if !outlets.Items[2].AIPartnered {
		t.Fatalf("expected true to decode as true")
	}
}

func TestDecodeRejectsNamelessRecords(t *testing.T) {
	t.Parallel()

	_, err := Decode([]map[string]any{{"Keywords": "security"}})
	if err == nil || !strings.Contains(err.Error(), "no name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestOutletsExcludePreservesOrder(t *testing.T) {
	t.Parallel()

	outlets := &Outlets{Items: []*Outlet{
		{ID: "1", Name: "A"}, {ID: "2", Name: "B"}, {ID: "3", Name: "C"}, {ID: "4", Name: "D"},
	}}

	excluded := outlets.ExcludeFunc(func(o *Outlet) bool { return o.Name == "B" || o.Name == "missing" })
	if !reflect.DeepEqual(excluded, []string{"2"}) {
		t.Fatalf("unexpected excluded ids: %v", excluded)
	}
	if !reflect.DeepEqual(outlets.Names(), []string{"A", "C", "D"}) {
		t.Fatalf("unexpected order after exclude: %v", outlets.Names())
	}
}

func TestOutletsFindByID(t *testing.T) {
	t.Parallel()

	outlets := &Outlets{Items: []*Outlet{{ID: "1", Name: "A"}, {Name: "B"}}}

	if got := outlets.FindByID("1"); got == nil || got.Name != "A" {
		t.Fatalf("expected outlet A, got %+v", got)
	}
	if got := outlets.FindByID("B"); got == nil || got.Key() != "B" {
		t.Fatalf("expected name fallback for B, got %+v", got)
	}
	if got := outlets.FindByID("zzz"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCloneDoesNotShareBackingArray(t *testing.T) {
	t.Parallel()

	outlets := &Outlets{Items: []*Outlet{{Name: "A"}, {Name: "B"}}}
	clone := outlets.Clone()
	clone.ExcludeFunc(func(o *Outlet) bool { return o.Name == "A" })

	if outlets.Len() != 2 || outlets.Items[0].Name != "A" {
		t.Fatalf("original collection modified: %v", outlets.Names())
	}
}

func TestParseRequirements(t *testing.T) {
	t.Parallel()

	tax := taxonomy.Default()

	tests := []struct {
		name       string
		guidelines string
		want       Requirements
	}{
		{
			name:       "range with html",
			guidelines: "<p>We run <b>op-eds</b> of 600-1,200 words. Data-driven pieces preferred.</p>",
			want:       Requirements{MinWords: 600, MaxWords: 1200, Formats: []string{"op-ed"}, Styles: []string{"data-driven"}},
		},
		{
			name:       "upper bound only",
			guidelines: "Case study submissions under 800 words, practical tone.",
			want:       Requirements{MaxWords: 800, Formats: []string{"case study"}, Styles: []string{"practical"}},
		},
		{
			name:       "lower bound only",
			guidelines: "Features of at least 1500 words.",
			want:       Requirements{MinWords: 1500, Formats: []string{"feature"}},
		},
		{
			name:       "nothing stated",
			guidelines: "",
			want:       Requirements{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseRequirements(tt.guidelines, tax)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestWordCountFits(t *testing.T) {
	t.Parallel()

	req := Requirements{MinWords: 10, MaxWords: 20}
	if !req.WordCountFits(15) || req.WordCountFits(5) || req.WordCountFits(25) {
		t.Fatalf("unexpected bounds handling for %+v", req)
	}
	if (Requirements{}).WordCountFits(15) {
		t.Fatalf("no stated bounds must not count as a fit")
	}
}

func TestParseTips(t *testing.T) {
	t.Parallel()

	tips := ParseTips("Focus on K-12 outcomes. Avoid product pitches; Must include data. Exclusive research welcome!")

	want := Tips{
		Focus:        []string{"focus on k-12 outcomes", "exclusive research welcome"},
		Avoid:        []string{"avoid product pitches"},
		Requirements: []string{"must include data"},
	}
	if !reflect.DeepEqual(tips, want) {
		t.Fatalf("expected %+v, got %+v", want, tips)
	}
}

func TestBuildProfileExpertise(t *testing.T) {
	t.Parallel()

	tax := taxonomy.Default()

	specialist := BuildProfile(&Outlet{
		Name:     "EdSurge",
		Keywords: "edtech, personalized learning, k-12, higher ed, assessment",
		Audience: "Education & Policy Leaders",
		Prestige: "High",
	}, tax)
	bare := BuildProfile(&Outlet{Name: "Unknown"}, tax)

	if specialist.Expertise <= bare.Expertise {
		t.Fatalf("expected specialist expertise %v above bare %v", specialist.Expertise, bare.Expertise)
	}
	if specialist.Expertise < 0 || specialist.Expertise > 1 {
		t.Fatalf("expertise out of bounds: %v", specialist.Expertise)
	}
	if len(specialist.Topics) != 5 {
		t.Fatalf("expected 5 topics, got %v", specialist.Topics)
	}
	// 0.3 * default prestige (0.7) only
	if bare.Expertise < 0.2099 || bare.Expertise > 0.2101 {
		t.Fatalf("expected bare expertise 0.21, got %v", bare.Expertise)
	}
}
