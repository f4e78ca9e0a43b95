package store

import (
	"database/sql"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var assignedTo sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Title, &c.Description, &c.Points,
		&c.RecurrenceRule, &assignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	return &c, nil
}

func scanChoreCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	var completedBy sql.NullInt64

	err := scanner.Scan(&c.ID, &c.ChoreID, &completedBy, &c.PointsAwarded, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	if completedBy.Valid {
		c.CompletedBy = &completedBy.Int64
	}
	return &c, nil
}

const choreCols = `id, household_id, title, description, points, recurrence_rule, assigned_to, created_at, updated_at`
const choreCompletionCols = `id, chore_id, completed_by, points_awarded, completed_at`

func (s *ChoreStore) Create(householdID int64, title, description string, points int, recurrenceRule string, assignedTo *int64) (*model.Chore, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (household_id, title, description, points, recurrence_rule, assigned_to)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, title, description, points, recurrenceRule, aTo,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *ChoreStore) GetByID(householdID, id int64) (*model.Chore, error) {
	row := s.db.QueryRow(
		`SELECT `+choreCols+` FROM chores WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) List(householdID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY title ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(householdID, id int64, title, description string, points int, recurrenceRule string, assignedTo *int64) (*model.Chore, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, points = ?, recurrence_rule = ?, assigned_to = ?, updated_at = datetime('now')
		 WHERE id = ? AND household_id = ?`,
		title, description, points, recurrenceRule, aTo, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *ChoreStore) Delete(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM chores WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) Complete(choreID int64, completedBy *int64, pointsAwarded int) (*model.ChoreCompletion, error) {
	var cBy sql.NullInt64
	if completedBy != nil {
		cBy = sql.NullInt64{Int64: *completedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chore_completions (chore_id, completed_by, points_awarded) VALUES (?, ?, ?)`,
		choreID, cBy, pointsAwarded,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+choreCompletionCols+` FROM chore_completions WHERE id = ?`, id)
	return scanChoreCompletion(row)
}

// GetCompletion returns a completion only when its chore belongs to the
// household.
func (s *ChoreStore) GetCompletion(householdID, completionID int64) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(
		`SELECT c.id, c.chore_id, c.completed_by, c.points_awarded, c.completed_at
		 FROM chore_completions c
		 JOIN chores ch ON ch.id = c.chore_id
		 WHERE c.id = ? AND ch.household_id = ?`,
		completionID, householdID,
	)
	c, err := scanChoreCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) DeleteCompletion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// LastCompletion returns the most recent completion time for a chore.
func (s *ChoreStore) LastCompletion(choreID int64) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+choreCompletionCols+` FROM chore_completions WHERE chore_id = ? ORDER BY completed_at DESC LIMIT 1`,
		choreID,
	)
	c, err := scanChoreCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return c, nil
}
