package store

import (
	"database/sql"
	"fmt"

	"github.com/hearthapp/hearth/internal/model"
)

type InboundEmailStore struct {
	db *sql.DB
}

func NewInboundEmailStore(db *sql.DB) *InboundEmailStore {
	return &InboundEmailStore{db: db}
}

const inboundEmailCols = `id, household_id, from_address, subject, status, items_added, events_added, received_at`

func scanInboundEmail(scanner interface{ Scan(...any) error }) (*model.InboundEmail, error) {
	var e model.InboundEmail
	err := scanner.Scan(
		&e.ID, &e.HouseholdID, &e.FromAddress, &e.Subject, &e.Status,
		&e.ItemsAdded, &e.EventsAdded, &e.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *InboundEmailStore) Create(householdID int64, from, subject, status string, itemsAdded, eventsAdded int) (*model.InboundEmail, error) {
	result, err := s.db.Exec(
		`INSERT INTO inbound_emails (household_id, from_address, subject, status, items_added, events_added)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, from, subject, status, itemsAdded, eventsAdded,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inbound email: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inboundEmailCols+` FROM inbound_emails WHERE id = ?`, id)
	return scanInboundEmail(row)
}

func (s *InboundEmailStore) ListByHousehold(householdID int64, limit int) ([]model.InboundEmail, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+inboundEmailCols+` FROM inbound_emails WHERE household_id = ? ORDER BY received_at DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list inbound emails: %w", err)
	}
	defer rows.Close()

	var emails []model.InboundEmail
	for rows.Next() {
		e, err := scanInboundEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inbound email: %w", err)
		}
		emails = append(emails, *e)
	}
	return emails, rows.Err()
}
