package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/matching"
	"github.com/spigell/outlet-matcher/internal/outlet"
)

func TestCanonicalWeights(t *testing.T) {
	t.Parallel()

	got, err := canonicalWeights(map[string]float64{
		"industry match":    2,
		" outlet expertise": 1.5,
		"PRESTIGE":          0.5,
	})
	if err != nil {
		t.Fatalf("canonical weights: %v", err)
	}

	want := map[string]float64{
		matching.FieldIndustry:  2,
		matching.FieldExpertise: 1.5,
		matching.FieldPrestige:  0.5,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for field, v := range want {
		if got[field] != v {
			t.Fatalf("expected %s=%v, got %v", field, v, got)
		}
	}

	if _, err := canonicalWeights(map[string]float64{"virality": 1}); !errors.Is(err, matching.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFeedTargets(t *testing.T) {
	t.Parallel()

	outlets := &outlet.Outlets{Items: []*outlet.Outlet{
		{ID: "edsurge", Name: "EdSurge", FeedURL: "https://example.com/edsurge.xml"},
		{ID: "wired", Name: "Wired"},
		{ID: "dark-reading", Name: "Dark Reading", FeedURL: "https://example.com/dr.xml"},
	}}

	if got := feedTargets(outlets, nil); len(got) != 2 || got[0].OutletID != "edsurge" || got[1].OutletID != "dark-reading" {
		t.Fatalf("unexpected targets: %+v", got)
	}
	if got := feedTargets(outlets, []string{"dark-reading", "wired"}); len(got) != 1 || got[0].FeedURL != "https://example.com/dr.xml" {
		t.Fatalf("unexpected filtered targets: %+v", got)
	}
}

func TestUseTable(t *testing.T) {
	t.Parallel()

	if asTable, err := useTable(formatTable); err != nil || !asTable {
		t.Fatalf("expected table output, got %v %v", asTable, err)
	}
	if asTable, err := useTable(formatJSON); err != nil || asTable {
		t.Fatalf("expected json output, got %v %v", asTable, err)
	}
	if _, err := useTable("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable(
		[]string{"#", "Outlet", "Score"},
		[][]string{{"1", "EdSurge", "72%"}, {"2", "Dark Reading"}},
		[]columnAlignment{alignRight, alignLeft, alignRight},
	)
	for _, want := range []string{"Outlet", "EdSurge", "72%", "Dark Reading"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<nil>") || strings.Contains(out, "OUTLET") {
		t.Fatalf("expected blank short cells and headers as given:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

func TestWithFeedbackLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feedback.lock")

	called := false
	if err := withFeedbackLock(context.Background(), path, func() error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("expected fn to run under the lock, got %v", err)
	}

	holder := flock.New(path)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("expected lock to be released, got %v %v", ok, err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withFeedbackLock(ctx, path, func() error {
		t.Fatalf("fn must not run while the lock is held")
		return nil
	})
	if err == nil {
		t.Fatalf("expected error while the lock is held elsewhere")
	}
}

func TestFlaggedFields(t *testing.T) {
	t.Parallel()

	rec := &feedback.Record{Fields: map[string]bool{
		matching.FieldNews:     true,
		matching.FieldKeywords: true,
		matching.FieldPrestige: false,
	}}
	got := flaggedFields(rec)
	if len(got) != 2 || got[0] != matching.FieldKeywords || got[1] != matching.FieldNews {
		t.Fatalf("unexpected flagged fields: %v", got)
	}
}
