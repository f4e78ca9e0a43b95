package store

import (
	"testing"

	"github.com/hearthapp/hearth/internal/database"
)

func setupChoreTestDB(t *testing.T) (*ChoreStore, *UserStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h, err := NewHouseholdStore(db).Create("Home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewChoreStore(db), NewUserStore(db), h.ID
}

func TestChoreCreateAndList(t *testing.T) {
	cs, us, hid := setupChoreTestDB(t)

	kid, _ := us.Create("kid@example.com", "Kid")
	chore, err := cs.Create(hid, "Take out trash", "Bins go out Sunday night", 10, "FREQ=WEEKLY;BYDAY=SU", &kid.ID)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Points != 10 {
		t.Errorf("points = %d, want 10", chore.Points)
	}
	if chore.AssignedTo == nil || *chore.AssignedTo != kid.ID {
		t.Errorf("assigned_to = %v, want %d", chore.AssignedTo, kid.ID)
	}

	chores, err := cs.List(hid)
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(chores) != 1 {
		t.Fatalf("len(chores) = %d, want 1", len(chores))
	}
}

func TestChoreComplete(t *testing.T) {
	cs, us, hid := setupChoreTestDB(t)

	kid, _ := us.Create("kid@example.com", "Kid")
	chore, _ := cs.Create(hid, "Dishes", "", 5, "", nil)

	completion, err := cs.Complete(chore.ID, &kid.ID, chore.Points)
	if err != nil {
		t.Fatalf("complete chore: %v", err)
	}
	if completion.PointsAwarded != 5 {
		t.Errorf("points_awarded = %d, want 5", completion.PointsAwarded)
	}

	last, err := cs.LastCompletion(chore.ID)
	if err != nil {
		t.Fatalf("last completion: %v", err)
	}
	if last == nil || last.ID != completion.ID {
		t.Fatalf("last = %+v, want completion %d", last, completion.ID)
	}
}

func TestChoreCrossHouseholdIsolation(t *testing.T) {
	cs, _, hid := setupChoreTestDB(t)

	chore, _ := cs.Create(hid, "Vacuum", "", 5, "", nil)

	got, err := cs.GetByID(hid+1, chore.ID)
	if err != nil {
		t.Fatalf("cross-household get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for foreign household, got %+v", got)
	}
}
