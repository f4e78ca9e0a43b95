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

type rewardFixture struct {
	handler    *RewardHandler
	rewards    *store.RewardStore
	users      *store.UserStore
	households *store.HouseholdStore
	ac         auth.AuthContext
}

func setupRewardHandler(t *testing.T) *rewardFixture {
	t.Helper()
	db := openTestDB(t)

	households := store.NewHouseholdStore(db)
	users := store.NewUserStore(db)
	rewards := store.NewRewardStore(db)

	h, err := households.Create("Home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	user, err := users.Create("kid@example.com", "Kid")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := households.AddMember(h.ID, user.ID, "member"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	return &rewardFixture{
		handler:    NewRewardHandler(rewards, users, websocket.NewHub(testLogger()), testLogger()),
		rewards:    rewards,
		users:      users,
		households: households,
		ac:         auth.AuthContext{UserID: user.ID, HouseholdID: h.ID, Role: "member", SessionID: 1},
	}
}

func redeemRequest(ac auth.AuthContext, rewardID int64) *http.Request {
	r := authedRequest("POST", "/api/rewards/"+strconv.FormatInt(rewardID, 10)+"/redeem", "", ac)
	r.SetPathValue("id", strconv.FormatInt(rewardID, 10))
	return r
}

func TestRedeemInsufficientPoints(t *testing.T) {
	f := setupRewardHandler(t)
	reward, _ := f.rewards.Create(f.ac.HouseholdID, "Movie night", "", 100)

	rec := httptest.NewRecorder()
	f.handler.Redeem(rec, redeemRequest(f.ac, reward.ID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != "INSUFFICIENT_POINTS" {
		t.Errorf("code = %q, want INSUFFICIENT_POINTS", body.Code)
	}
}

func TestRedeemSpendsCoins(t *testing.T) {
	f := setupRewardHandler(t)
	reward, _ := f.rewards.Create(f.ac.HouseholdID, "Ice cream", "", 30)
	f.users.AddXP(f.ac.UserID, 50)

	rec := httptest.NewRecorder()
	f.handler.Redeem(rec, redeemRequest(f.ac, reward.ID))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	user, _ := f.users.GetByID(f.ac.UserID)
	if user.Coins != 20 {
		t.Errorf("coins = %d, want 20 after redeeming", user.Coins)
	}
	if user.XP != 50 {
		t.Errorf("xp = %d, want 50; redemption must not touch xp", user.XP)
	}
}

func TestRedeemInactiveRewardIs404(t *testing.T) {
	f := setupRewardHandler(t)
	reward, _ := f.rewards.Create(f.ac.HouseholdID, "Retired", "", 10)
	if _, err := f.rewards.Update(f.ac.HouseholdID, reward.ID, "Retired", "", 10, false); err != nil {
		t.Fatalf("deactivate reward: %v", err)
	}
	f.users.AddXP(f.ac.UserID, 100)

	rec := httptest.NewRecorder()
	f.handler.Redeem(rec, redeemRequest(f.ac, reward.ID))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for inactive reward", rec.Code)
	}
}

func TestRedeemForeignRewardIs404(t *testing.T) {
	f := setupRewardHandler(t)
	// A reward belonging to a household the caller is not in.
	other, err := f.households.Create("Next Door")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	foreign, _ := f.rewards.Create(other.ID, "Not yours", "", 10)
	f.users.AddXP(f.ac.UserID, 100)

	rec := httptest.NewRecorder()
	f.handler.Redeem(rec, redeemRequest(f.ac, foreign.ID))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for foreign reward", rec.Code)
	}
}

func TestRewardManagementRequiresAdmin(t *testing.T) {
	f := setupRewardHandler(t)

	rec := httptest.NewRecorder()
	f.handler.Create(rec, authedRequest("POST", "/api/rewards", `{"title":"TV time","point_cost":20}`, f.ac))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member create: status = %d, want 403", rec.Code)
	}

	admin := f.ac
	admin.Role = "admin"
	rec = httptest.NewRecorder()
	f.handler.Create(rec, authedRequest("POST", "/api/rewards", `{"title":"TV time","point_cost":20}`, admin))
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}
