package model

import "time"

type Chore struct {
	ID             int64     `json:"id"`
	HouseholdID    int64     `json:"household_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Points         int       `json:"points"`
	RecurrenceRule string    `json:"recurrence_rule"`
	AssignedTo     *int64    `json:"assigned_to"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ChoreCompletion struct {
	ID            int64     `json:"id"`
	ChoreID       int64     `json:"chore_id"`
	CompletedBy   *int64    `json:"completed_by"`
	PointsAwarded int       `json:"points_awarded"`
	CompletedAt   time.Time `json:"completed_at"`
}
