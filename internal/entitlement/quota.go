package entitlement

import (
	"context"
	"fmt"
	"time"
)

// Monthly quota ceilings per plan. Features absent from a plan's map are
// unmetered: the static gate alone decides.
var planQuotas = map[Plan]map[Feature]int{
	PlanPro: {
		FeatureBackups: 10,
	},
	PlanProPlus: {
		FeatureBackups:      30,
		FeatureEmailParsing: 200,
	},
}

// UsageStore is the persistence surface for metered feature counters.
type UsageStore interface {
	Increment(ctx context.Context, householdID int64, feature, period string) (int, error)
	Get(ctx context.Context, householdID int64, feature, period string) (int, error)
}

// QuotaChecker consults live usage counters. Unlike CanAccess this is a
// remote call with its own failure mode: a store error must surface as an
// upstream failure, never as a silent allow.
type QuotaChecker struct {
	store UsageStore
	now   func() time.Time
}

func NewQuotaChecker(store UsageStore) *QuotaChecker {
	return &QuotaChecker{store: store, now: time.Now}
}

// Consume records one use of a metered feature and reports whether the
// household is still within its monthly quota.
func (q *QuotaChecker) Consume(ctx context.Context, householdID int64, plan Plan, feature Feature) (bool, error) {
	if !CanAccess(plan, feature) {
		return false, nil
	}
	limit := planQuotas[plan][feature]
	if limit <= 0 {
		return true, nil
	}

	period := q.now().UTC().Format("2006-01")
	count, err := q.store.Increment(ctx, householdID, string(feature), period)
	if err != nil {
		return false, fmt.Errorf("increment usage: %w", err)
	}
	return count <= limit, nil
}

// Remaining returns how many metered uses are left this month, or -1 for
// unmetered features.
func (q *QuotaChecker) Remaining(ctx context.Context, householdID int64, plan Plan, feature Feature) (int, error) {
	limit := planQuotas[plan][feature]
	if limit <= 0 {
		return -1, nil
	}
	period := q.now().UTC().Format("2006-01")
	count, err := q.store.Get(ctx, householdID, string(feature), period)
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	if remaining := limit - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
