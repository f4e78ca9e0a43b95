package store

import (
	"database/sql"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int
	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Title, &r.Description, &r.PointCost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, household_id, title, description, point_cost, active, created_at`

func (s *RewardStore) Create(householdID int64, title, description string, pointCost int) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (household_id, title, description, point_cost) VALUES (?, ?, ?, ?)`,
		householdID, title, description, pointCost,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *RewardStore) GetByID(householdID, id int64) (*model.Reward, error) {
	row := s.db.QueryRow(
		`SELECT `+rewardCols+` FROM rewards WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

func (s *RewardStore) List(householdID int64, activeOnly bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE household_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY point_cost ASC, title ASC`

	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(householdID, id int64, title, description string, pointCost int, active bool) (*model.Reward, error) {
	activeInt := 0
	if active {
		activeInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, point_cost = ?, active = ? WHERE id = ? AND household_id = ?`,
		title, description, pointCost, activeInt, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *RewardStore) Delete(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM rewards WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

func (s *RewardStore) Redeem(rewardID int64, redeemedBy *int64, pointsSpent int) (*model.RewardRedemption, error) {
	var rBy sql.NullInt64
	if redeemedBy != nil {
		rBy = sql.NullInt64{Int64: *redeemedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO reward_redemptions (reward_id, redeemed_by, points_spent) VALUES (?, ?, ?)`,
		rewardID, rBy, pointsSpent,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var red model.RewardRedemption
	var redBy sql.NullInt64
	row := s.db.QueryRow(
		`SELECT id, reward_id, redeemed_by, points_spent, redeemed_at FROM reward_redemptions WHERE id = ?`,
		id,
	)
	if err := row.Scan(&red.ID, &red.RewardID, &redBy, &red.PointsSpent, &red.RedeemedAt); err != nil {
		return nil, fmt.Errorf("scan redemption: %w", err)
	}
	if redBy.Valid {
		red.RedeemedBy = &redBy.Int64
	}
	return &red, nil
}

// Leaderboard returns per-member earned/spent/balance totals for the
// household, ordered by balance descending.
func (s *RewardStore) Leaderboard(householdID int64) ([]model.PointBalance, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.name, u.xp, u.xp - u.coins, u.coins
		 FROM users u
		 JOIN household_members hm ON hm.user_id = u.id
		 WHERE hm.household_id = ?
		 ORDER BY u.coins DESC, u.name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		var b model.PointBalance
		if err := rows.Scan(&b.UserID, &b.UserName, &b.TotalEarned, &b.TotalSpent, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
