package model

import "time"

type Recipe struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MealPlanEntry assigns a recipe to a date and meal slot.
type MealPlanEntry struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	RecipeID    int64     `json:"recipe_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Slot        string    `json:"slot"` // breakfast, lunch, dinner
	CreatedAt   time.Time `json:"created_at"`
}
