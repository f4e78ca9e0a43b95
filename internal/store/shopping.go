package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthapp/hearth/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// --- List methods ---

func scanShoppingList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	err := scanner.Scan(&l.ID, &l.HouseholdID, &l.Name, &l.SortOrder, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const shoppingListCols = `id, household_id, name, sort_order, created_at`

func (s *ShoppingStore) CreateList(householdID int64, name string) (*model.ShoppingList, error) {
	result, err := s.db.Exec(
		`INSERT INTO shopping_lists (household_id, name) VALUES (?, ?)`,
		householdID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ?`, id)
	return scanShoppingList(row)
}

// GetList returns the list only when it belongs to the household.
func (s *ShoppingStore) GetList(householdID, id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// GetDefaultList returns the household's first list by sort order.
func (s *ShoppingStore) GetDefaultList(householdID int64) (*model.ShoppingList, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE household_id = ? ORDER BY sort_order ASC, id ASC LIMIT 1`,
		householdID,
	)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get default list: %w", err)
	}
	return l, nil
}

func (s *ShoppingStore) ListLists(householdID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.Query(
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE household_id = ? ORDER BY sort_order ASC, name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// --- Item methods ---

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var checkedBy, addedBy sql.NullInt64
	var checkedAt sql.NullTime
	var checked int

	err := scanner.Scan(
		&item.ID, &item.ListID, &item.HouseholdID, &item.Name, &item.Quantity,
		&item.Unit, &item.Notes, &item.Category, &checked, &checkedBy,
		&checkedAt, &addedBy, &item.SortOrder, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Checked = checked != 0
	if checkedBy.Valid {
		item.CheckedBy = &checkedBy.Int64
	}
	if checkedAt.Valid {
		item.CheckedAt = &checkedAt.Time
	}
	if addedBy.Valid {
		item.AddedBy = &addedBy.Int64
	}
	return &item, nil
}

const shoppingItemCols = `id, list_id, household_id, name, quantity, unit, notes, category, checked, checked_by, checked_at, added_by, sort_order, created_at`

func (s *ShoppingStore) GetItem(householdID, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingItemCols+` FROM shopping_items WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) CreateItem(householdID, listID int64, name, quantity, unit, notes, category string, addedBy *int64) (*model.ShoppingItem, error) {
	var aBy sql.NullInt64
	if addedBy != nil {
		aBy = sql.NullInt64{Int64: *addedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO shopping_items (list_id, household_id, name, quantity, unit, notes, category, added_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listID, householdID, name, quantity, unit, notes, category, aBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(householdID, id)
}

func (s *ShoppingStore) ListItems(householdID, listID int64) ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(
		`SELECT `+shoppingItemCols+` FROM shopping_items
		 WHERE list_id = ? AND household_id = ?
		 ORDER BY checked ASC, category ASC, sort_order ASC, created_at ASC`,
		listID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) UpdateItem(householdID, id int64, name, quantity, unit, notes, category string) (*model.ShoppingItem, error) {
	_, err := s.db.Exec(
		`UPDATE shopping_items SET name = ?, quantity = ?, unit = ?, notes = ?, category = ?
		 WHERE id = ? AND household_id = ?`,
		name, quantity, unit, notes, category, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetItem(householdID, id)
}

func (s *ShoppingStore) DeleteItem(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM shopping_items WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *ShoppingStore) SetChecked(householdID, id int64, checked bool, checkedBy *int64) (*model.ShoppingItem, error) {
	var cBy sql.NullInt64
	var cAt sql.NullTime
	if checked {
		if checkedBy != nil {
			cBy = sql.NullInt64{Int64: *checkedBy, Valid: true}
		}
		cAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	checkedInt := 0
	if checked {
		checkedInt = 1
	}

	_, err := s.db.Exec(
		`UPDATE shopping_items SET checked = ?, checked_by = ?, checked_at = ?
		 WHERE id = ? AND household_id = ?`,
		checkedInt, cBy, cAt, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set checked: %w", err)
	}
	return s.GetItem(householdID, id)
}

func (s *ShoppingStore) ClearChecked(householdID, listID int64) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM shopping_items WHERE list_id = ? AND household_id = ? AND checked = 1`,
		listID, householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
