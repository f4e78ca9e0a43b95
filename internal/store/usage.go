package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UsageStore persists metered feature counters, keyed by household, feature
// and billing period (YYYY-MM).
type UsageStore struct {
	db *sql.DB
}

func NewUsageStore(db *sql.DB) *UsageStore {
	return &UsageStore{db: db}
}

// Increment bumps the counter and returns the new value.
func (s *UsageStore) Increment(ctx context.Context, householdID int64, feature, period string) (int, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feature_usage (household_id, feature, period, count) VALUES (?, ?, ?, 1)
		 ON CONFLICT(household_id, feature, period) DO UPDATE SET count = count + 1`,
		householdID, feature, period,
	)
	if err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return s.Get(ctx, householdID, feature, period)
}

func (s *UsageStore) Get(ctx context.Context, householdID int64, feature, period string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM feature_usage WHERE household_id = ? AND feature = ? AND period = ?`,
		householdID, feature, period,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return count, nil
}
