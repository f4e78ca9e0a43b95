package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

func setupEventHandler(t *testing.T) (*EventHandler, *store.EventStore, auth.AuthContext) {
	t.Helper()
	db := openTestDB(t)

	households := store.NewHouseholdStore(db)
	users := store.NewUserStore(db)
	events := store.NewEventStore(db)

	h, _ := households.Create("Home")
	user, _ := users.Create("cal@example.com", "Cal")
	if _, err := households.AddMember(h.ID, user.ID, "member"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	handler := NewEventHandler(events, websocket.NewHub(testLogger()), testLogger())
	return handler, events, auth.AuthContext{UserID: user.ID, HouseholdID: h.ID, Role: "member", SessionID: 1}
}

func TestCreateEventValidation(t *testing.T) {
	handler, _, ac := setupEventHandler(t)

	for name, body := range map[string]string{
		"missing title":  `{"start_time":"2026-09-01T10:00:00Z"}`,
		"missing start":  `{"title":"Dentist"}`,
		"end before":     `{"title":"Dentist","start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T09:00:00Z"}`,
		"bad recurrence": `{"title":"Dentist","start_time":"2026-09-01T10:00:00Z","recurrence_rule":"FREQ=SOMETIMES"}`,
	} {
		rec := httptest.NewRecorder()
		handler.Create(rec, authedRequest("POST", "/api/events", body, ac))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestListExpandsRecurringEvents(t *testing.T) {
	handler, events, ac := setupEventHandler(t)

	start := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC) // a Monday
	if _, err := events.Create(ac.HouseholdID, "Family dinner", "", "Home",
		start, start.Add(time.Hour), false, "FREQ=WEEKLY", &ac.UserID); err != nil {
		t.Fatalf("create event: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.List(rec, authedRequest("GET",
		"/api/events?from=2026-09-01T00:00:00Z&to=2026-09-29T00:00:00Z", "", ac))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var occurrences []struct {
		Title     string    `json:"title"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Recurring bool      `json:"recurring"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &occurrences); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Mondays in the window: Sep 7, 14, 21, 28.
	if len(occurrences) != 4 {
		t.Fatalf("got %d occurrences, want 4: %+v", len(occurrences), occurrences)
	}
	for _, occ := range occurrences {
		if !occ.Recurring {
			t.Errorf("occurrence %v not marked recurring", occ.StartTime)
		}
		if occ.StartTime.Weekday() != time.Monday {
			t.Errorf("occurrence %v is not a Monday", occ.StartTime)
		}
		if occ.EndTime.Sub(occ.StartTime) != time.Hour {
			t.Errorf("occurrence duration = %v, want 1h", occ.EndTime.Sub(occ.StartTime))
		}
	}
}

func TestListFiltersOneOffEvents(t *testing.T) {
	handler, events, ac := setupEventHandler(t)

	in := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	out := time.Date(2026, 10, 10, 10, 0, 0, 0, time.UTC)
	events.Create(ac.HouseholdID, "In window", "", "", in, in.Add(time.Hour), false, "", &ac.UserID)
	events.Create(ac.HouseholdID, "Out of window", "", "", out, out.Add(time.Hour), false, "", &ac.UserID)

	rec := httptest.NewRecorder()
	handler.List(rec, authedRequest("GET",
		"/api/events?from=2026-09-01T00:00:00Z&to=2026-09-30T00:00:00Z", "", ac))

	var occurrences []struct {
		Title string `json:"title"`
	}
	json.Unmarshal(rec.Body.Bytes(), &occurrences)
	if len(occurrences) != 1 || occurrences[0].Title != "In window" {
		t.Fatalf("occurrences = %+v, want only the in-window event", occurrences)
	}
}

func TestGetForeignEventIs404(t *testing.T) {
	handler, events, ac := setupEventHandler(t)

	start := time.Now().UTC()
	event, _ := events.Create(ac.HouseholdID, "Ours", "", "", start, start.Add(time.Hour), false, "", &ac.UserID)

	// Same event id, different household in the auth context.
	foreign := ac
	foreign.HouseholdID = ac.HouseholdID + 99
	id := strconv.FormatInt(event.ID, 10)
	req := authedRequest("GET", "/api/events/"+id, "", foreign)
	req.SetPathValue("id", id)

	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for another household's event", rec.Code)
	}
}
