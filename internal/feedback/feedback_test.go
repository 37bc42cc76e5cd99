package feedback

import (
	"testing"
	"time"
)

func TestSuccessRates(t *testing.T) {
	t.Parallel()

	records := []Record{
		{OutletID: "a", Success: true, Fields: map[string]bool{"Keywords": true, "Prestige": true}},
		{OutletID: "a", Success: false, Fields: map[string]bool{"Keywords": true, "Prestige": false}},
		{OutletID: "b", Success: true, Fields: map[string]bool{"Keywords": true}},
		{OutletID: "b", Success: true},
	}

	rates := SuccessRates(records)

	kw := rates["Keywords"]
	if kw.Total != 3 || kw.Successes != 2 {
		t.Fatalf("unexpected keywords rate: %+v", kw)
	}
	if p := rates["Prestige"]; p.Total != 1 || p.Value() != 1 {
		t.Fatalf("unexpected prestige rate: %+v", p)
	}
	if _, ok := rates["Audience"]; ok {
		t.Fatalf("fields without flags must not get a rate")
	}
}

func TestWeightFor(t *testing.T) {
	t.Parallel()

	tests := map[float64]float64{
		0:    1.0,
		0.5:  2.0,
		1:    3.0,
		-0.2: 1.0,
		1.7:  3.0,
	}

	for rate, want := range tests {
		if got := WeightFor(rate); got != want {
			t.Fatalf("WeightFor(%v) = %v, want %v", rate, got, want)
		}
	}
}

func TestWeights(t *testing.T) {
	t.Parallel()

	weights := Weights([]Record{
		{Success: true, Fields: map[string]bool{"Audience": true}},
		{Success: true, Fields: map[string]bool{"Audience": true}},
		{Success: false, Fields: map[string]bool{"News Match": true}},
	})

	if weights["Audience"] != 3.0 {
		t.Fatalf("expected Audience weight 3.0, got %v", weights["Audience"])
	}
	if weights["News Match"] != 1.0 {
		t.Fatalf("expected News Match weight 1.0, got %v", weights["News Match"])
	}
	if len(weights) != 2 {
		t.Fatalf("expected 2 learned weights, got %v", weights)
	}
}

func TestForOutlet(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: "1", OutletID: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "2", OutletID: "b", CreatedAt: now},
		{ID: "3", OutletID: "a", CreatedAt: now},
	}

	got := ForOutlet(records, "a")
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "1" {
		t.Fatalf("unexpected records: %+v", got)
	}
}
