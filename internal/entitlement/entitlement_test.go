package entitlement

import "testing"

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{"free", PlanFree},
		{"pro", PlanPro},
		{"pro_plus", PlanProPlus},
		{"", PlanFree},
		{"enterprise", PlanFree},
	}
	for _, tt := range tests {
		if got := ParsePlan(tt.in); got != tt.want {
			t.Errorf("ParsePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFreeTierFeatures(t *testing.T) {
	for _, f := range []Feature{FeatureShopping, FeatureChores, FeatureCalendar, FeatureRewards} {
		if !CanAccess(PlanFree, f) {
			t.Errorf("free should include %s", f)
		}
	}
	for _, f := range []Feature{FeatureMealPlanning, FeaturePush, FeatureBackups, FeatureEmailParsing, FeatureFinance} {
		if CanAccess(PlanFree, f) {
			t.Errorf("free should not include %s", f)
		}
	}
}

func TestProPlusOnlyFeatures(t *testing.T) {
	for _, f := range []Feature{FeatureEmailParsing, FeatureFinance} {
		if CanAccess(PlanPro, f) {
			t.Errorf("pro should not include %s", f)
		}
		if !CanAccess(PlanProPlus, f) {
			t.Errorf("pro_plus should include %s", f)
		}
	}
}

// Each tier unlocks everything the tier below it does.
func TestTiersAreSupersets(t *testing.T) {
	order := []Plan{PlanFree, PlanPro, PlanProPlus}
	for i := 1; i < len(order); i++ {
		lower, higher := order[i-1], order[i]
		for _, f := range Features(lower) {
			if !CanAccess(higher, f) {
				t.Errorf("%s has %s but %s does not", lower, f, higher)
			}
		}
	}
}

func TestUnknownFeatureDenied(t *testing.T) {
	if CanAccess(PlanProPlus, Feature("time_travel")) {
		t.Error("unknown feature must never be granted")
	}
}
