package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthapp/hearth/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var createdBy sql.NullInt64
	var allDay int

	err := scanner.Scan(
		&e.ID, &e.HouseholdID, &e.Title, &e.Description, &e.Location,
		&e.StartTime, &e.EndTime, &allDay, &e.RecurrenceRule, &createdBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.AllDay = allDay != 0
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

const eventCols = `id, household_id, title, description, location, start_time, end_time, all_day, recurrence_rule, created_by, created_at, updated_at`

func (s *EventStore) Create(householdID int64, title, description, location string, start, end time.Time, allDay bool, recurrenceRule string, createdBy *int64) (*model.CalendarEvent, error) {
	allDayInt := 0
	if allDay {
		allDayInt = 1
	}
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO calendar_events (household_id, title, description, location, start_time, end_time, all_day, recurrence_rule, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, location, start.UTC(), end.UTC(), allDayInt, recurrenceRule, cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *EventStore) GetByID(householdID, id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT `+eventCols+` FROM calendar_events WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListInRange returns events overlapping [from, to), plus all recurring
// events (their occurrences are expanded by the caller).
func (s *EventStore) ListInRange(householdID int64, from, to time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE household_id = ? AND (recurrence_rule != '' OR (start_time < ? AND end_time >= ?))
		 ORDER BY start_time ASC`,
		householdID, to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(householdID, id int64, title, description, location string, start, end time.Time, allDay bool, recurrenceRule string) (*model.CalendarEvent, error) {
	allDayInt := 0
	if allDay {
		allDayInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE calendar_events
		 SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?, all_day = ?, recurrence_rule = ?, updated_at = datetime('now')
		 WHERE id = ? AND household_id = ?`,
		title, description, location, start.UTC(), end.UTC(), allDayInt, recurrenceRule, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *EventStore) Delete(householdID, id int64) error {
	_, err := s.db.Exec(
		`DELETE FROM calendar_events WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
