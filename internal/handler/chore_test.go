package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type choreFixture struct {
	handler *ChoreHandler
	chores  *store.ChoreStore
	users   *store.UserStore
	ac      auth.AuthContext
}

func setupChoreHandler(t *testing.T) *choreFixture {
	t.Helper()
	db := openTestDB(t)

	households := store.NewHouseholdStore(db)
	users := store.NewUserStore(db)
	chores := store.NewChoreStore(db)

	h, _ := households.Create("Home")
	user, _ := users.Create("kid@example.com", "Kid")
	if _, err := households.AddMember(h.ID, user.ID, "member"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	return &choreFixture{
		handler: NewChoreHandler(chores, users, households, websocket.NewHub(testLogger()), testLogger()),
		chores:  chores,
		users:   users,
		ac:      auth.AuthContext{UserID: user.ID, HouseholdID: h.ID, Role: "member", SessionID: 1},
	}
}

func pathIDRequest(method, base string, id int64, ac auth.AuthContext) *http.Request {
	s := strconv.FormatInt(id, 10)
	r := authedRequest(method, base+"/"+s, "", ac)
	r.SetPathValue("id", s)
	return r
}

func (f *choreFixture) listStatuses(t *testing.T) []choreStatus {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.List(rec, authedRequest("GET", "/api/chores", "", f.ac))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d: %s", rec.Code, rec.Body.String())
	}
	var statuses []choreStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return statuses
}

func TestChoreDueUntilCompleted(t *testing.T) {
	f := setupChoreHandler(t)
	chore, _ := f.chores.Create(f.ac.HouseholdID, "Dishes", "", 5, "FREQ=DAILY", nil)

	statuses := f.listStatuses(t)
	if len(statuses) != 1 || !statuses[0].Due {
		t.Fatalf("statuses = %+v, want the new chore due", statuses)
	}

	rec := httptest.NewRecorder()
	f.handler.Complete(rec, pathIDRequest("POST", "/api/chores", chore.ID, f.ac))
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete: status = %d: %s", rec.Code, rec.Body.String())
	}

	statuses = f.listStatuses(t)
	if statuses[0].Due {
		t.Error("daily chore should not be due again immediately after completion")
	}
	if statuses[0].LastCompletedAt == nil {
		t.Error("expected last_completed_at after completion")
	}
	if statuses[0].NextDueAt == nil {
		t.Error("expected next_due_at for a recurring chore")
	}
}

func TestChoreCompleteAwardsPoints(t *testing.T) {
	f := setupChoreHandler(t)
	chore, _ := f.chores.Create(f.ac.HouseholdID, "Mow lawn", "", 15, "", nil)

	rec := httptest.NewRecorder()
	f.handler.Complete(rec, pathIDRequest("POST", "/api/chores", chore.ID, f.ac))
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete: status = %d", rec.Code)
	}

	user, _ := f.users.GetByID(f.ac.UserID)
	if user.XP != 15 || user.Coins != 15 {
		t.Errorf("xp/coins = %d/%d, want 15/15", user.XP, user.Coins)
	}
}

func TestChoreUncompleteClawsBackPoints(t *testing.T) {
	f := setupChoreHandler(t)
	chore, _ := f.chores.Create(f.ac.HouseholdID, "Mow lawn", "", 15, "", nil)

	rec := httptest.NewRecorder()
	f.handler.Complete(rec, pathIDRequest("POST", "/api/chores", chore.ID, f.ac))
	var completion struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &completion); err != nil {
		t.Fatalf("decode completion: %v", err)
	}

	rec = httptest.NewRecorder()
	f.handler.Uncomplete(rec, pathIDRequest("DELETE", "/api/chores/completions", completion.ID, f.ac))
	if rec.Code != http.StatusOK {
		t.Fatalf("uncomplete: status = %d: %s", rec.Code, rec.Body.String())
	}

	user, _ := f.users.GetByID(f.ac.UserID)
	if user.XP != 0 || user.Coins != 0 {
		t.Errorf("xp/coins = %d/%d, want 0/0 after undo", user.XP, user.Coins)
	}

	statuses := f.listStatuses(t)
	if !statuses[0].Due {
		t.Error("one-off chore should be due again after undo")
	}
}

func TestChoreUncompleteForeignCompletionIs404(t *testing.T) {
	f := setupChoreHandler(t)
	chore, _ := f.chores.Create(f.ac.HouseholdID, "Dishes", "", 5, "", nil)
	completion, _ := f.chores.Complete(chore.ID, &f.ac.UserID, 5)

	foreign := f.ac
	foreign.HouseholdID = f.ac.HouseholdID + 99
	rec := httptest.NewRecorder()
	f.handler.Uncomplete(rec, pathIDRequest("DELETE", "/api/chores/completions", completion.ID, foreign))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for another household's completion", rec.Code)
	}
}

func TestChoreValidation(t *testing.T) {
	f := setupChoreHandler(t)

	for name, body := range map[string]string{
		"missing title": `{"points":5}`,
		"negative":      `{"title":"x","points":-1}`,
		"bad rule":      `{"title":"x","points":5,"recurrence_rule":"whenever"}`,
		"non-member":    `{"title":"x","points":5,"assigned_to":9999}`,
	} {
		rec := httptest.NewRecorder()
		f.handler.Create(rec, authedRequest("POST", "/api/chores", body, f.ac))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}
