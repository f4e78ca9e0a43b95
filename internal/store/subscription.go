package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthapp/hearth/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	var stripeID sql.NullString
	var periodEnd sql.NullTime
	var cancelAtEnd int

	err := scanner.Scan(
		&sub.ID, &sub.HouseholdID, &stripeID, &sub.Plan, &sub.Status,
		&periodEnd, &cancelAtEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if stripeID.Valid {
		sub.StripeSubscriptionID = &stripeID.String
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	sub.CancelAtPeriodEnd = cancelAtEnd != 0
	return &sub, nil
}

const subscriptionCols = `id, household_id, stripe_subscription_id, plan, status, current_period_end, cancel_at_period_end, created_at, updated_at`

func (s *SubscriptionStore) Create(householdID int64, plan string) (*model.Subscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO subscriptions (household_id, plan, status) VALUES (?, ?, 'active')`,
		householdID, plan,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ?`, id)
	return scanSubscription(row)
}

// GetByHousehold returns the household's current subscription, or nil when
// it has never subscribed.
func (s *SubscriptionStore) GetByHousehold(householdID int64) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE household_id = ? ORDER BY created_at DESC LIMIT 1`,
		householdID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) GetByStripeID(stripeSubscriptionID string) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE stripe_subscription_id = ?`,
		stripeSubscriptionID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by stripe id: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) UpdateStripeID(id int64, stripeSubscriptionID string) error {
	_, err := s.db.Exec(
		`UPDATE subscriptions SET stripe_subscription_id = ?, updated_at = datetime('now') WHERE id = ?`,
		stripeSubscriptionID, id,
	)
	if err != nil {
		return fmt.Errorf("update stripe subscription id: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) UpdateStatus(id int64, status string, periodEnd *time.Time, cancelAtPeriodEnd bool) error {
	var pEnd sql.NullTime
	if periodEnd != nil {
		pEnd = sql.NullTime{Time: periodEnd.UTC(), Valid: true}
	}
	cancelInt := 0
	if cancelAtPeriodEnd {
		cancelInt = 1
	}

	_, err := s.db.Exec(
		`UPDATE subscriptions SET status = ?, current_period_end = ?, cancel_at_period_end = ?, updated_at = datetime('now') WHERE id = ?`,
		status, pEnd, cancelInt, id,
	)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) UpdatePlan(id int64, plan string) error {
	_, err := s.db.Exec(
		`UPDATE subscriptions SET plan = ?, updated_at = datetime('now') WHERE id = ?`,
		plan, id,
	)
	if err != nil {
		return fmt.Errorf("update subscription plan: %w", err)
	}
	return nil
}
