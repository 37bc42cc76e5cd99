package filtering

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/taxonomy"
	"github.com/spigell/outlet-matcher/internal/testsupport"
)

func focusMap(foci map[string]string) FocusFunc {
	return func(o *outlet.Outlet) string {
		return foci[o.ID]
	}
}

func TestRunStrictSpecialization(t *testing.T) {
	t.Parallel()

	catalog := testsupport.Catalog()
	deps := Deps{
		Taxonomy:       taxonomy.Default(),
		Focus:          focusMap(map[string]string{"construction-dive": "construction", "dark-reading": "cybersecurity"}),
		Specialization: "education",
	}

	got, err := Run(context.Background(), &Config{}, deps, Steps(nil), catalog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"EdSurge", "The Hechinger Report", "Dark Reading", "TechCrunch"}
	if !reflect.DeepEqual(got.Names(), want) {
		t.Fatalf("expected %v, got %v", want, got.Names())
	}
	if catalog.Len() != 8 {
		t.Fatalf("input catalog must not be modified, got %d outlets", catalog.Len())
	}
}

func TestRunWithoutSpecializationOnlyAppliesConfiguredExclusions(t *testing.T) {
	t.Parallel()

	cfg := &Config{ExcludedOutlets: []string{" techcrunch "}}
	deps := Deps{Taxonomy: taxonomy.Default(), Focus: focusMap(nil)}

	got, err := Run(context.Background(), cfg, deps, Steps(cfg), testsupport.Catalog())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Len() != 7 || got.FindByID("techcrunch") != nil {
		t.Fatalf("expected only TechCrunch to be removed, got %v", got.Names())
	}
}

func TestRunNonStrictSpecializationUsesUniversalList(t *testing.T) {
	t.Parallel()

	catalog := testsupport.Catalog()
	catalog.Items = append(catalog.Items, &outlet.Outlet{ID: "gossip", Name: "Celebrity Gossip Weekly"})

	deps := Deps{
		Taxonomy:       taxonomy.Default(),
		Focus:          focusMap(map[string]string{"construction-dive": "construction"}),
		Specialization: "startup",
	}

	got, err := Run(context.Background(), nil, deps, Steps(nil), catalog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Len() != 8 || got.FindByID("gossip") != nil {
		t.Fatalf("expected only the gossip outlet to be removed, got %v", got.Names())
	}
}

func TestRunUnknownSpecializationIsNoop(t *testing.T) {
	t.Parallel()

	deps := Deps{Taxonomy: taxonomy.Default(), Specialization: "underwater_basket_weaving"}
	got, err := Run(context.Background(), nil, deps, Steps(nil), testsupport.Catalog())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Len() != 8 {
		t.Fatalf("expected all outlets to survive, got %v", got.Names())
	}
}

func TestDisabledStepIsSkipped(t *testing.T) {
	t.Parallel()

	steps := Steps(nil)
	DisableByName(steps, "excluded_names", "testing")

	deps := Deps{Taxonomy: taxonomy.Default(), Focus: focusMap(nil), Specialization: "education"}
	got, err := Run(context.Background(), nil, deps, steps, testsupport.Catalog())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.FindByID("food-wine") == nil {
		t.Fatalf("expected Food & Wine to survive when name exclusions are disabled")
	}

	for _, status := range Describe(steps) {
		if status.Name == "excluded_names" && (status.Enabled || status.Reason != "testing") {
			t.Fatalf("unexpected status: %+v", status)
		}
	}
}

func TestValidateRejectsInvalidMinHits(t *testing.T) {
	t.Parallel()

	deps := Deps{Taxonomy: taxonomy.Default(), Specialization: "education"}
	_, err := Run(context.Background(), nil, deps, Steps(&Config{MinOffTopicHits: -1}), testsupport.Catalog())
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestIncompatibleFocusRequiresClassifier(t *testing.T) {
	t.Parallel()

	deps := Deps{Taxonomy: taxonomy.Default(), Specialization: "cybersecurity"}
	if _, err := Run(context.Background(), nil, deps, Steps(nil), testsupport.Catalog()); err == nil {
		t.Fatalf("expected error without focus classifier")
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, nil, Deps{}, Steps(nil), testsupport.Catalog()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRunLogsDroppedOutlets(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	deps := Deps{
		Logger:         zap.New(core),
		Taxonomy:       taxonomy.Default(),
		Focus:          focusMap(nil),
		Specialization: "cybersecurity",
	}

	if _, err := Run(context.Background(), nil, deps, Steps(nil), testsupport.Catalog()); err != nil {
		t.Fatalf("run: %v", err)
	}

	dropped := logs.FilterMessage("outlet filtered").FilterField(zap.String("outlet", "food-wine"))
	if dropped.Len() != 1 {
		t.Fatalf("expected one drop entry for food-wine, got %d", dropped.Len())
	}
	if logs.FilterMessage("filter step").Len() != len(Steps(nil)) {
		t.Fatalf("expected one summary per step, got %d", logs.FilterMessage("filter step").Len())
	}
}

func TestConfiguredDisabledSteps(t *testing.T) {
	t.Parallel()

	cfg := &Config{Disabled: []string{"off_topic_keywords", "universal_exclusions"}}
	steps := Steps(cfg)

	disabled := map[string]bool{}
	for _, status := range Describe(steps) {
		if !status.Enabled {
			disabled[status.Name] = true
			if status.Reason != "disabled in configuration" {
				t.Fatalf("unexpected reason: %+v", status)
			}
		}
	}
	if len(disabled) != 2 || !disabled["off_topic_keywords"] || !disabled["universal_exclusions"] {
		t.Fatalf("unexpected disabled steps: %v", disabled)
	}
	if len(StepNames()) != len(steps) {
		t.Fatalf("expected one name per step, got %v", StepNames())
	}
}
