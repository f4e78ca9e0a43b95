// Package entitlement maps a household's plan tier to the capabilities it
// unlocks. The feature table is static; quota checks are separate and
// stateful (see quota.go).
package entitlement

// Plan is a closed enum of subscription tiers.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanProPlus Plan = "pro_plus"
)

// ParsePlan normalizes a stored plan string, defaulting to free on
// anything unrecognized.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanPro:
		return PlanPro
	case PlanProPlus:
		return PlanProPlus
	default:
		return PlanFree
	}
}

// Feature is a closed enum of gateable capability keys.
type Feature string

const (
	FeatureShopping     Feature = "shopping"
	FeatureChores       Feature = "chores"
	FeatureCalendar     Feature = "calendar"
	FeatureRewards      Feature = "rewards"
	FeatureMealPlanning Feature = "meal_planning"
	FeaturePush         Feature = "push_notifications"
	FeatureBackups      Feature = "backups"
	FeatureEmailParsing Feature = "email_parsing"
	FeatureFinance      Feature = "finance_enabled"
)

// Each tier's set is a superset of the tier below it.
var planFeatures = map[Plan]map[Feature]bool{
	PlanFree: featureSet(
		FeatureShopping, FeatureChores, FeatureCalendar, FeatureRewards,
	),
	PlanPro: featureSet(
		FeatureShopping, FeatureChores, FeatureCalendar, FeatureRewards,
		FeatureMealPlanning, FeaturePush, FeatureBackups,
	),
	PlanProPlus: featureSet(
		FeatureShopping, FeatureChores, FeatureCalendar, FeatureRewards,
		FeatureMealPlanning, FeaturePush, FeatureBackups,
		FeatureEmailParsing, FeatureFinance,
	),
}

func featureSet(features ...Feature) map[Feature]bool {
	m := make(map[Feature]bool, len(features))
	for _, f := range features {
		m[f] = true
	}
	return m
}

// CanAccess reports whether the plan unlocks the feature. Pure function,
// no I/O; safe to call on every request.
func CanAccess(plan Plan, feature Feature) bool {
	return planFeatures[plan][feature]
}

// Features returns the feature keys enabled for a plan, for API responses.
func Features(plan Plan) []Feature {
	set := planFeatures[plan]
	out := make([]Feature, 0, len(set))
	for _, f := range []Feature{
		FeatureShopping, FeatureChores, FeatureCalendar, FeatureRewards,
		FeatureMealPlanning, FeaturePush, FeatureBackups,
		FeatureEmailParsing, FeatureFinance,
	} {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}
