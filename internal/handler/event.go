package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/recurrence"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type EventHandler struct {
	events *store.EventStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewEventHandler(es *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: es, hub: hub, logger: logger.With("component", "calendar")}
}

type eventRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AllDay         bool      `json:"all_day"`
	RecurrenceRule string    `json:"recurrence_rule"`
}

func (r *eventRequest) validate() *apierr.Error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return apierr.BadRequest("title is required")
	}
	if r.StartTime.IsZero() {
		return apierr.BadRequest("start_time is required")
	}
	if r.EndTime.IsZero() {
		r.EndTime = r.StartTime.Add(time.Hour)
	}
	if r.EndTime.Before(r.StartTime) {
		return apierr.BadRequest("end_time must not precede start_time")
	}
	if r.RecurrenceRule != "" {
		if _, err := recurrence.Parse(r.RecurrenceRule); err != nil {
			return apierr.BadRequest("invalid recurrence rule: " + err.Error())
		}
	}
	return nil
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if aerr := req.validate(); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	event, err := h.events.Create(ac.HouseholdID, req.Title, req.Description, req.Location, req.StartTime, req.EndTime, req.AllDay, req.RecurrenceRule, &ac.UserID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("event", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

// occurrence is one concrete instance of an event within a query window.
// Recurring events appear once per expanded occurrence.
type occurrence struct {
	EventID   int64     `json:"event_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	AllDay    bool      `json:"all_day"`
	Recurring bool      `json:"recurring"`
}

// List returns event occurrences in [from, to), expanding recurrence
// rules. Defaults to the next 30 days.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from, to := now, now.AddDate(0, 0, 30)

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeErr(w, h.logger, apierr.BadRequest("from must be RFC 3339"))
			return
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeErr(w, h.logger, apierr.BadRequest("to must be RFC 3339"))
			return
		}
		to = t
	}
	if !to.After(from) {
		writeErr(w, h.logger, apierr.BadRequest("to must be after from"))
		return
	}

	events, err := h.events.ListInRange(auth.HouseholdID(r.Context()), from, to)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	occurrences := []occurrence{}
	for _, e := range events {
		duration := e.EndTime.Sub(e.StartTime)

		if e.RecurrenceRule == "" {
			if e.StartTime.Before(to) && e.EndTime.After(from) {
				occurrences = append(occurrences, occurrence{
					EventID: e.ID, Title: e.Title, Location: e.Location,
					StartTime: e.StartTime, EndTime: e.EndTime, AllDay: e.AllDay,
				})
			}
			continue
		}

		rule, err := recurrence.Parse(e.RecurrenceRule)
		if err != nil {
			h.logger.Warn("stored recurrence rule is invalid", "event_id", e.ID, "error", err)
			continue
		}
		for _, start := range recurrence.Expand(rule, e.StartTime, from, to) {
			occurrences = append(occurrences, occurrence{
				EventID: e.ID, Title: e.Title, Location: e.Location,
				StartTime: start, EndTime: start.Add(duration), AllDay: e.AllDay,
				Recurring: true,
			})
		}
	}

	writeJSON(w, http.StatusOK, occurrences)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}

	event, err := h.events.GetByID(auth.HouseholdID(r.Context()), id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if event == nil {
		writeErr(w, h.logger, apierr.NotFound("event"))
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.events.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("event"))
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if aerr := req.validate(); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	event, err := h.events.Update(householdID, id, req.Title, req.Description, req.Location, req.StartTime, req.EndTime, req.AllDay, req.RecurrenceRule)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("event", "updated", event.ID, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.events.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("event"))
		return
	}

	if err := h.events.Delete(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("event", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
