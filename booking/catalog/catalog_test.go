package catalog

import (
	"testing"

	coreconfig "github.com/wowmotion/bookingbot/core/config"
)

func testPlans() []coreconfig.Plan {
	return []coreconfig.Plan{
		{ID: "solo1", Name: "Solo Базовый", Price: 200000, Group: "solo"},
		{ID: "solo2", Name: "Premium Solo", Price: 280000, Group: "solo"},
		{ID: "duo", Name: "Два поколения", Price: 360000, Group: "duo"},
	}
}

func TestNewAndLookups(t *testing.T) {
	c, err := New(testPlans())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, ok := c.PlanByID("solo2")
	if !ok {
		t.Fatal("expected solo2 to be found")
	}
	if p.Name != "Premium Solo" || p.Price != 280000 {
		t.Fatalf("unexpected plan: %+v", p)
	}

	if _, ok := c.PlanByID("nope"); ok {
		t.Fatal("unknown id must not resolve")
	}

	if got := len(c.Plans()); got != 3 {
		t.Fatalf("Plans: got %d, want 3", got)
	}

	solo := c.PlansByGroup("solo")
	if len(solo) != 2 || solo[0].ID != "solo1" || solo[1].ID != "solo2" {
		t.Fatalf("PlansByGroup order broken: %+v", solo)
	}

	groups := c.Groups()
	if len(groups) != 2 || groups[0] != "solo" || groups[1] != "duo" {
		t.Fatalf("Groups: %v", groups)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	plans := testPlans()
	plans = append(plans, coreconfig.Plan{ID: "solo1", Name: "copy"})
	if _, err := New(plans); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
