package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type MealStore struct {
	db *sql.DB
}

func NewMealStore(db *sql.DB) *MealStore {
	return &MealStore{db: db}
}

// --- Recipe methods ---

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	var ingredients string
	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Name, &r.Description, &ingredients, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	return &r, nil
}

const recipeCols = `id, household_id, name, description, ingredients, created_at, updated_at`

func (s *MealStore) CreateRecipe(householdID int64, name, description string, ingredients []string) (*model.Recipe, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	encoded, err := json.Marshal(ingredients)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO recipes (household_id, name, description, ingredients) VALUES (?, ?, ?, ?)`,
		householdID, name, description, string(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRecipe(householdID, id)
}

func (s *MealStore) GetRecipe(householdID, id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(
		`SELECT `+recipeCols+` FROM recipes WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *MealStore) ListRecipes(householdID int64) ([]model.Recipe, error) {
	rows, err := s.db.Query(
		`SELECT `+recipeCols+` FROM recipes WHERE household_id = ? ORDER BY name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *MealStore) UpdateRecipe(householdID, id int64, name, description string, ingredients []string) (*model.Recipe, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	encoded, err := json.Marshal(ingredients)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE recipes SET name = ?, description = ?, ingredients = ?, updated_at = datetime('now')
		 WHERE id = ? AND household_id = ?`,
		name, description, string(encoded), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return s.GetRecipe(householdID, id)
}

func (s *MealStore) DeleteRecipe(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM recipes WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// --- Meal plan methods ---

func scanMealPlanEntry(scanner interface{ Scan(...any) error }) (*model.MealPlanEntry, error) {
	var e model.MealPlanEntry
	err := scanner.Scan(&e.ID, &e.HouseholdID, &e.RecipeID, &e.Date, &e.Slot, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const mealPlanCols = `id, household_id, recipe_id, date, slot, created_at`

// AssignMeal creates or replaces the entry for the (date, slot) pair.
func (s *MealStore) AssignMeal(householdID, recipeID int64, date, slot string) (*model.MealPlanEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO meal_plan_entries (household_id, recipe_id, date, slot) VALUES (?, ?, ?, ?)
		 ON CONFLICT(household_id, date, slot) DO UPDATE SET recipe_id = excluded.recipe_id`,
		householdID, recipeID, date, slot,
	)
	if err != nil {
		return nil, fmt.Errorf("assign meal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(
		`SELECT `+mealPlanCols+` FROM meal_plan_entries WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	e, scanErr := scanMealPlanEntry(row)
	if scanErr == sql.ErrNoRows {
		// Upsert path: the row id is the pre-existing entry's.
		row = s.db.QueryRow(
			`SELECT `+mealPlanCols+` FROM meal_plan_entries WHERE household_id = ? AND date = ? AND slot = ?`,
			householdID, date, slot,
		)
		return scanMealPlanEntry(row)
	}
	return e, scanErr
}

func (s *MealStore) GetEntry(householdID, id int64) (*model.MealPlanEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+mealPlanCols+` FROM meal_plan_entries WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	e, err := scanMealPlanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meal plan entry: %w", err)
	}
	return e, nil
}

func (s *MealStore) ListEntries(householdID int64, fromDate, toDate string) ([]model.MealPlanEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+mealPlanCols+` FROM meal_plan_entries
		 WHERE household_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC, slot ASC`,
		householdID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list meal plan entries: %w", err)
	}
	defer rows.Close()

	var entries []model.MealPlanEntry
	for rows.Next() {
		e, err := scanMealPlanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal plan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *MealStore) DeleteEntry(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM meal_plan_entries WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete meal plan entry: %w", err)
	}
	return nil
}
