package store

import (
	"testing"

	"github.com/hearthapp/hearth/internal/database"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewUserStore(db)
}

func TestHouseholdCreateAndGet(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.Create("The Bakers")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "The Bakers" {
		t.Errorf("name = %q, want %q", h.Name, "The Bakers")
	}
	if h.Plan != "free" {
		t.Errorf("plan = %q, want free", h.Plan)
	}
	if h.StripeCustomerID != "" {
		t.Errorf("stripe customer id = %q, want empty before billing setup", h.StripeCustomerID)
	}

	got, err := hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get household: %v", err)
	}
	if got == nil || got.ID != h.ID {
		t.Fatalf("got = %+v, want id %d", got, h.ID)
	}
}

func TestMembershipSingleHousehold(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	user, err := us.Create("pat@example.com", "Pat")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h1, _ := hs.Create("First")
	h2, _ := hs.Create("Second")

	if _, err := hs.AddMember(h1.ID, user.ID, "owner"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	// A user belongs to exactly one household.
	if _, err := hs.AddMember(h2.ID, user.ID, "member"); err == nil {
		t.Fatal("expected second membership to be rejected")
	}

	member, err := hs.GetMemberByUser(user.ID)
	if err != nil {
		t.Fatalf("get member by user: %v", err)
	}
	if member == nil {
		t.Fatal("expected membership, got nil")
	}
	if member.HouseholdID != h1.ID {
		t.Errorf("household_id = %d, want %d", member.HouseholdID, h1.ID)
	}
	if member.Role != "owner" {
		t.Errorf("role = %q, want owner", member.Role)
	}
}

func TestGetMemberByUserMissing(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	user, _ := us.Create("nomember@example.com", "Drifter")

	member, err := hs.GetMemberByUser(user.ID)
	if err != nil {
		t.Fatalf("get member by user: %v", err)
	}
	if member != nil {
		t.Fatalf("expected nil membership, got %+v", member)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	hs, us := setupHouseholdTestDB(t)

	user, _ := us.Create("kid@example.com", "Kid")
	h, _ := hs.Create("Home")
	if _, err := hs.AddMember(h.ID, user.ID, "member"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	member, err := hs.UpdateMemberRole(h.ID, user.ID, "admin")
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if member.Role != "admin" {
		t.Errorf("role = %q, want admin", member.Role)
	}
}

func TestUpdatePlan(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, _ := hs.Create("Home")
	if err := hs.UpdatePlan(h.ID, "pro_plus"); err != nil {
		t.Fatalf("update plan: %v", err)
	}

	got, _ := hs.GetByID(h.ID)
	if got.Plan != "pro_plus" {
		t.Errorf("plan = %q, want pro_plus", got.Plan)
	}
}

func TestSeedDefaults(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)
	h, _ := hs.Create("Home")

	if err := hs.SeedDefaults(h.ID); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	ss := NewShoppingStore(hs.db)
	list, err := ss.GetDefaultList(h.ID)
	if err != nil {
		t.Fatalf("get default list: %v", err)
	}
	if list == nil {
		t.Fatal("expected a seeded default shopping list")
	}
}

func TestGetByStripeCustomerID(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)
	h, _ := hs.Create("Home")

	if err := hs.UpdateStripeCustomerID(h.ID, "cus_123"); err != nil {
		t.Fatalf("update stripe customer: %v", err)
	}

	got, err := hs.GetByStripeCustomerID("cus_123")
	if err != nil {
		t.Fatalf("get by customer id: %v", err)
	}
	if got == nil || got.ID != h.ID {
		t.Fatalf("got = %+v, want household %d", got, h.ID)
	}
	if got.StripeCustomerID != "cus_123" {
		t.Errorf("stripe customer id = %q, want cus_123", got.StripeCustomerID)
	}

	missing, err := hs.GetByStripeCustomerID("cus_unknown")
	if err != nil {
		t.Fatalf("get by unknown customer id: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown customer, got %+v", missing)
	}
}
