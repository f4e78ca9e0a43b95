package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/billing"
	"github.com/hearthapp/hearth/internal/store"
)

type subscriptionFixture struct {
	handler    *SubscriptionHandler
	households *store.HouseholdStore
	ac         auth.AuthContext
}

func setupSubscriptionHandler(t *testing.T) *subscriptionFixture {
	t.Helper()
	db := openTestDB(t)

	households := store.NewHouseholdStore(db)
	subs := store.NewSubscriptionStore(db)
	users := store.NewUserStore(db)

	// Keys are set so the client reports configured; the tests below
	// never reach a Stripe API call.
	client := billing.NewClient(billing.Config{
		SecretKey:      "sk_test_x",
		WebhookSecret:  "whsec_x",
		ProPriceID:     "price_pro",
		ProPlusPriceID: "price_pro_plus",
	})

	h, _ := households.Create("Home")
	user, _ := users.Create("owner@example.com", "Owner")
	if _, err := households.AddMember(h.ID, user.ID, "owner"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	return &subscriptionFixture{
		handler:    NewSubscriptionHandler(households, subs, users, client, testLogger()),
		households: households,
		ac:         auth.AuthContext{UserID: user.ID, HouseholdID: h.ID, Role: "owner", SessionID: 1},
	}
}

func TestSubscriptionGetFreePlan(t *testing.T) {
	f := setupSubscriptionHandler(t)

	rec := httptest.NewRecorder()
	f.handler.Get(rec, authedRequest("GET", "/api/subscription", "", f.ac))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Plan     string   `json:"plan"`
		Features []string `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Plan != "free" {
		t.Errorf("plan = %q, want free", resp.Plan)
	}
}

func TestCheckoutRequiresAdmin(t *testing.T) {
	f := setupSubscriptionHandler(t)

	member := f.ac
	member.Role = "member"
	rec := httptest.NewRecorder()
	f.handler.Checkout(rec, authedRequest("POST", "/api/subscription/checkout", `{"plan":"pro"}`, member))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for member role", rec.Code)
	}
}

func TestCheckoutUnknownPlan(t *testing.T) {
	f := setupSubscriptionHandler(t)

	rec := httptest.NewRecorder()
	f.handler.Checkout(rec, authedRequest("POST", "/api/subscription/checkout", `{"plan":"mega"}`, f.ac))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown plan", rec.Code)
	}
}

func TestCheckoutMissingUserIs404(t *testing.T) {
	f := setupSubscriptionHandler(t)

	ghost := f.ac
	ghost.UserID = 9999
	rec := httptest.NewRecorder()
	f.handler.Checkout(rec, authedRequest("POST", "/api/subscription/checkout", `{"plan":"pro"}`, ghost))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when the user row is gone", rec.Code)
	}
}

func TestPortalWithoutBillingAccount(t *testing.T) {
	f := setupSubscriptionHandler(t)

	rec := httptest.NewRecorder()
	f.handler.Portal(rec, authedRequest("POST", "/api/subscription/portal", `{"return_url":"https://hearth.test/settings"}`, f.ac))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 before a customer exists", rec.Code)
	}
}
