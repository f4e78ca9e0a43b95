package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/email"
	"github.com/hearthapp/hearth/internal/store"
)

type authFixture struct {
	handler    *AuthHandler
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	codes      *store.SignInCodeStore
}

func setupAuthHandler(t *testing.T) *authFixture {
	t.Helper()
	db := openTestDB(t)

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	sessions := store.NewSessionStore(db, time.Hour)
	codes := store.NewSignInCodeStore(db)
	subs := store.NewSubscriptionStore(db)

	handler := NewAuthHandler(
		users, households, sessions, codes, subs,
		auth.NewCSRF("test-secret"),
		email.NewClient("", ""), // unconfigured: codes are created, not sent
		false,
		testLogger(),
	)
	return &authFixture{
		handler:    handler,
		users:      users,
		households: households,
		sessions:   sessions,
		codes:      codes,
	}
}

func postJSON(target, body string) *http.Request {
	r := httptest.NewRequest("POST", target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestRegisterAndVerifyCreatesHousehold(t *testing.T) {
	f := setupAuthHandler(t)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, postJSON("/api/auth/register", `{"email":"Pat@Example.com","name":"Pat"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("register: status = %d: %s", rec.Code, rec.Body.String())
	}

	// The endpoint never returns the code; read it from the store.
	code, err := f.codes.GetLatestByEmail("pat@example.com")
	if err != nil || code == nil {
		t.Fatalf("expected a pending code, got %v, %v", code, err)
	}
	if code.Purpose != "register" {
		t.Errorf("purpose = %q, want register", code.Purpose)
	}

	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify",
		`{"email":"pat@example.com","code":"`+code.Code+`","name":"Pat","household_name":"The Patterns"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.CSRFToken == "" {
		t.Fatal("expected session and csrf tokens")
	}

	user, _ := f.users.GetByEmail("pat@example.com")
	if user == nil {
		t.Fatal("user not created")
	}
	member, _ := f.households.GetMemberByUser(user.ID)
	if member == nil || member.Role != "owner" {
		t.Fatalf("membership = %+v, want owner of new household", member)
	}

	// The new user's session is live.
	sess, _ := f.sessions.GetByToken(resp.Token)
	if sess == nil || sess.UserID != user.ID {
		t.Fatalf("session = %+v, want one for user %d", sess, user.ID)
	}
}

// Login reveals nothing about account existence: unknown emails get the
// same response and no code is created for them.
func TestLoginDoesNotLeakAccounts(t *testing.T) {
	f := setupAuthHandler(t)
	f.users.Create("known@example.com", "Known")

	for _, addr := range []string{"known@example.com", "unknown@example.com"} {
		rec := httptest.NewRecorder()
		f.handler.Login(rec, postJSON("/api/auth/login", `{"email":"`+addr+`"}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("login %s: status = %d", addr, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); !strings.Contains(got, "code_sent") {
			t.Errorf("login %s: body = %s", addr, got)
		}
	}

	if code, _ := f.codes.GetLatestByEmail("unknown@example.com"); code != nil {
		t.Fatal("no code should exist for an unknown email")
	}
	if code, _ := f.codes.GetLatestByEmail("known@example.com"); code == nil {
		t.Fatal("known email should have a pending code")
	}
}

func TestVerifyWrongCode(t *testing.T) {
	f := setupAuthHandler(t)
	f.users.Create("pat@example.com", "Pat")

	rec := httptest.NewRecorder()
	f.handler.Login(rec, postJSON("/api/auth/login", `{"email":"pat@example.com"}`))

	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify", `{"email":"pat@example.com","code":"000000"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for wrong code", rec.Code)
	}

	code, _ := f.codes.GetLatestByEmail("pat@example.com")
	if code.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 after a miss", code.Attempts)
	}
}

func TestVerifyLocksAfterTooManyAttempts(t *testing.T) {
	f := setupAuthHandler(t)
	f.users.Create("pat@example.com", "Pat")

	rec := httptest.NewRecorder()
	f.handler.Login(rec, postJSON("/api/auth/login", `{"email":"pat@example.com"}`))
	code, _ := f.codes.GetLatestByEmail("pat@example.com")

	for i := 0; i < maxCodeAttempts; i++ {
		rec = httptest.NewRecorder()
		f.handler.Verify(rec, postJSON("/api/auth/verify", `{"email":"pat@example.com","code":"000000"}`))
	}

	// Even the right code is refused once the attempt budget is spent.
	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify", `{"email":"pat@example.com","code":"`+code.Code+`"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 after lockout", rec.Code)
	}
}

func TestVerifyCodeSingleUse(t *testing.T) {
	f := setupAuthHandler(t)
	f.users.Create("pat@example.com", "Pat")

	rec := httptest.NewRecorder()
	f.handler.Login(rec, postJSON("/api/auth/login", `{"email":"pat@example.com"}`))
	code, _ := f.codes.GetLatestByEmail("pat@example.com")

	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify", `{"email":"pat@example.com","code":"`+code.Code+`"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("first verify: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify", `{"email":"pat@example.com","code":"`+code.Code+`"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second verify: status = %d, want 400 for a used code", rec.Code)
	}
}

func TestVerifyInviteJoinsHousehold(t *testing.T) {
	f := setupAuthHandler(t)

	owner, _ := f.users.Create("owner@example.com", "Owner")
	h, _ := f.households.Create("Home")
	f.households.AddMember(h.ID, owner.ID, "owner")

	invite := authedRequest("POST", "/api/auth/invite", `{"email":"cousin@example.com"}`,
		auth.AuthContext{UserID: owner.ID, HouseholdID: h.ID, Role: "owner", SessionID: 1})
	rec := httptest.NewRecorder()
	f.handler.Invite(rec, invite)
	if rec.Code != http.StatusOK {
		t.Fatalf("invite: status = %d: %s", rec.Code, rec.Body.String())
	}

	code, _ := f.codes.GetLatestByEmail("cousin@example.com")
	if code == nil || code.Purpose != "invite" {
		t.Fatalf("code = %+v, want a pending invite", code)
	}

	rec = httptest.NewRecorder()
	f.handler.Verify(rec, postJSON("/api/auth/verify",
		`{"email":"cousin@example.com","code":"`+code.Code+`","name":"Cousin"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status = %d: %s", rec.Code, rec.Body.String())
	}

	user, _ := f.users.GetByEmail("cousin@example.com")
	member, _ := f.households.GetMemberByUser(user.ID)
	if member == nil || member.HouseholdID != h.ID || member.Role != "member" {
		t.Fatalf("membership = %+v, want member of household %d", member, h.ID)
	}
}

func TestInviteRequiresAdmin(t *testing.T) {
	f := setupAuthHandler(t)

	req := authedRequest("POST", "/api/auth/invite", `{"email":"x@example.com"}`,
		auth.AuthContext{UserID: 1, HouseholdID: 1, Role: "member", SessionID: 1})
	rec := httptest.NewRecorder()
	f.handler.Invite(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
