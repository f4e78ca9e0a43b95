package model

import "time"

// InboundEmail records one processed forward-to-Hearth email and what was
// extracted from it.
type InboundEmail struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	FromAddress string    `json:"from_address"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"` // processed, skipped, failed
	ItemsAdded  int       `json:"items_added"`
	EventsAdded int       `json:"events_added"`
	ReceivedAt  time.Time `json:"received_at"`
}
