package store

import (
	"testing"

	"github.com/hearthapp/hearth/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("pat@example.com", "Pat")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.XP != 0 || u.Coins != 0 {
		t.Errorf("new user xp/coins = %d/%d, want 0/0", u.XP, u.Coins)
	}

	got, err := us.GetByEmail("pat@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("got = %+v, want user %d", got, u.ID)
	}

	missing, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get unknown email: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v", missing)
	}
}

func TestAddXPAlsoGrantsCoins(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("kid@example.com", "Kid")
	if err := us.AddXP(u.ID, 25); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if err := us.AddXP(u.ID, 10); err != nil {
		t.Fatalf("add xp: %v", err)
	}

	got, _ := us.GetByID(u.ID)
	if got.XP != 35 {
		t.Errorf("xp = %d, want 35", got.XP)
	}
	if got.Coins != 35 {
		t.Errorf("coins = %d, want 35", got.Coins)
	}
}

func TestSpendCoins(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("kid@example.com", "Kid")
	us.AddXP(u.ID, 50)

	ok, err := us.SpendCoins(u.ID, 30)
	if err != nil {
		t.Fatalf("spend coins: %v", err)
	}
	if !ok {
		t.Fatal("expected spend to succeed")
	}

	// Balance is 20; a 30-coin spend must fail without mutating.
	ok, err = us.SpendCoins(u.ID, 30)
	if err != nil {
		t.Fatalf("spend coins: %v", err)
	}
	if ok {
		t.Fatal("expected spend to fail on insufficient balance")
	}

	got, _ := us.GetByID(u.ID)
	if got.Coins != 20 {
		t.Errorf("coins = %d, want 20", got.Coins)
	}
	if got.XP != 50 {
		t.Errorf("xp = %d, want 50 (spending never touches xp)", got.XP)
	}
}
