package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spigell/outlet-matcher/internal/feedback"
	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/store"
	"github.com/spigell/outlet-matcher/internal/testsupport"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), "mysql", "dsn")
	if !errors.Is(err, store.ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "outlets.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := store.Open(ctx, "", path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if s.Driver() != store.DriverSQLite {
			t.Fatalf("expected sqlite default driver, got %q", s.Driver())
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestUpsertAndListOutlets(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	catalog := &outlet.Outlets{Items: []*outlet.Outlet{
		{Name: "Wired", Keywords: "technology", AIPartnered: true, Prestige: "High"},
		{ID: "dark-reading", Name: "Dark Reading", Keywords: "cybersecurity, threat intelligence"},
	}}

	n, err := s.UpsertOutlets(ctx, catalog)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 upserted outlets, got %d", n)
	}
	wiredID := catalog.Items[0].ID
	if wiredID == "" || wiredID != store.OutletID(&outlet.Outlet{Name: " wired "}) {
		t.Fatalf("expected stable derived id, got %q", wiredID)
	}

	// Re-importing updates in place.
	_, err = s.UpsertOutlets(ctx, &outlet.Outlets{Items: []*outlet.Outlet{
		{Name: "Wired", Keywords: "technology, science"},
	}})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	outlets, err := s.Outlets(ctx)
	if err != nil {
		t.Fatalf("outlets: %v", err)
	}
	if outlets.Len() != 2 {
		t.Fatalf("expected 2 outlets, got %d", outlets.Len())
	}
	if got := outlets.Names(); !reflect.DeepEqual(got, []string{"Dark Reading", "Wired"}) {
		t.Fatalf("unexpected order: %v", got)
	}

	wired := outlets.FindByID(wiredID)
	if wired == nil || wired.Keywords != "technology, science" {
		t.Fatalf("expected updated keywords, got %+v", wired)
	}
	if wired.AIPartnered {
		t.Fatalf("expected AI Partnered flag to follow the latest import")
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	older := &feedback.Record{
		OutletID:  "edsurge",
		Success:   true,
		Note:      "published",
		Fields:    map[string]bool{"Keywords": true, "Audience": false},
		CreatedAt: time.Date(2020, 9, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &feedback.Record{OutletID: "dark-reading"}

	for _, rec := range []*feedback.Record{newer, older} {
		if err := s.SaveFeedback(ctx, rec); err != nil {
			t.Fatalf("save feedback: %v", err)
		}
		if rec.ID == "" {
			t.Fatalf("expected id to be assigned")
		}
	}

	records, err := s.Feedback(ctx)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != older.ID || !first.Success || first.Note != "published" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if !reflect.DeepEqual(first.Fields, older.Fields) {
		t.Fatalf("unexpected fields: %v", first.Fields)
	}
	if !first.CreatedAt.Equal(older.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", older.CreatedAt, first.CreatedAt)
	}
	if records[1].Success || len(records[1].Fields) != 0 {
		t.Fatalf("unexpected second record: %+v", records[1])
	}

	if err := s.SaveFeedback(ctx, &feedback.Record{}); err == nil {
		t.Fatalf("expected error for feedback without outlet id")
	}
}

func TestReplaceArticles(t *testing.T) {
	s := testsupport.MustSeedStore(t)
	ctx := context.Background()

	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	err := s.ReplaceArticles(ctx, "edsurge", []outlet.Article{
		{Title: "Old piece", PublishedAt: day.Add(-48 * time.Hour)},
		{Title: "Adaptive assessments in K-12", Description: "How tutoring platforms adapt", PublishedAt: day},
	})
	if err != nil {
		t.Fatalf("replace articles: %v", err)
	}
	if err := s.ReplaceArticles(ctx, "dark-reading", []outlet.Article{{Title: "Ransomware surge"}}); err != nil {
		t.Fatalf("replace articles: %v", err)
	}

	articles, err := s.Articles(ctx)
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	ed := articles["edsurge"]
	if len(ed) != 2 || ed[0].Title != "Adaptive assessments in K-12" {
		t.Fatalf("expected newest article first, got %+v", ed)
	}
	if ed[0].OutletID != "edsurge" || ed[0].ID == "" {
		t.Fatalf("expected outlet id and article id to be set, got %+v", ed[0])
	}

	if err := s.ReplaceArticles(ctx, "edsurge", nil); err != nil {
		t.Fatalf("clear articles: %v", err)
	}
	articles, err = s.Articles(ctx)
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	if len(articles["edsurge"]) != 0 || len(articles["dark-reading"]) != 1 {
		t.Fatalf("unexpected articles after clearing: %+v", articles)
	}
}

func TestDeleteOutletRemovesArticles(t *testing.T) {
	s := testsupport.MustSeedStore(t)
	ctx := context.Background()

	if err := s.ReplaceArticles(ctx, "finextra", []outlet.Article{{Title: "Payments"}}); err != nil {
		t.Fatalf("replace articles: %v", err)
	}
	if err := s.DeleteOutlet(ctx, "finextra"); err != nil {
		t.Fatalf("delete outlet: %v", err)
	}

	outlets, err := s.Outlets(ctx)
	if err != nil {
		t.Fatalf("outlets: %v", err)
	}
	if outlets.FindByID("finextra") != nil {
		t.Fatalf("expected finextra to be deleted")
	}
	articles, err := s.Articles(ctx)
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	if _, ok := articles["finextra"]; ok {
		t.Fatalf("expected finextra articles to be deleted")
	}
}

func TestPitches(t *testing.T) {
	s := testsupport.MustOpenStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i, abstract := range []string{"first pitch", "second pitch", "third pitch"} {
		p := &store.Pitch{
			Abstract:     abstract,
			Industry:     "Education",
			MatchesFound: i,
			TopOutlets:   []string{"EdSurge", "The Hechinger Report"},
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SavePitch(ctx, p); err != nil {
			t.Fatalf("save pitch: %v", err)
		}
	}

	pitches, err := s.Pitches(ctx, 2)
	if err != nil {
		t.Fatalf("pitches: %v", err)
	}
	if len(pitches) != 2 || pitches[0].Abstract != "third pitch" || pitches[1].Abstract != "second pitch" {
		t.Fatalf("unexpected pitches: %+v", pitches)
	}
	if !reflect.DeepEqual(pitches[0].TopOutlets, []string{"EdSurge", "The Hechinger Report"}) {
		t.Fatalf("unexpected top outlets: %v", pitches[0].TopOutlets)
	}

	all, err := s.Pitches(ctx, 0)
	if err != nil {
		t.Fatalf("pitches: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 pitches, got %d", len(all))
	}

	if err := s.SavePitch(ctx, &store.Pitch{Abstract: "  "}); err == nil {
		t.Fatalf("expected error for empty abstract")
	}
}
