package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/email"
	"github.com/hearthapp/hearth/internal/middleware"
	"github.com/hearthapp/hearth/internal/store"
)

const maxCodeAttempts = 5

type AuthHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	codes      *store.SignInCodeStore
	subs       *store.SubscriptionStore
	csrf       *auth.CSRF
	mailer     *email.Client
	secure     bool // mark session cookies Secure
	logger     *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	hs *store.HouseholdStore,
	ss *store.SessionStore,
	cs *store.SignInCodeStore,
	subs *store.SubscriptionStore,
	csrf *auth.CSRF,
	mailer *email.Client,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:      us,
		households: hs,
		sessions:   ss,
		codes:      cs,
		subs:       subs,
		csrf:       csrf,
		mailer:     mailer,
		secure:     secure,
		logger:     logger.With("component", "auth"),
	}
}

type registerRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	HouseholdName string `json:"household_name"`
}

// Register requests a registration code. The response is identical
// whether or not the email is already registered, so the endpoint leaks
// nothing about existing accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeErr(w, h.logger, apierr.BadRequest("valid email is required"))
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	// An existing account gets a login code instead; verification then
	// behaves like a normal sign-in.
	purpose := "register"
	if existing != nil {
		purpose = "login"
	}

	code, err := h.codes.Create(req.Email, purpose, nil)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	h.sendCode(r, req.Email, code.Code, purpose, "")

	writeJSON(w, http.StatusOK, map[string]string{"status": "code_sent"})
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login requests a sign-in code. Unknown emails get the same response as
// known ones.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeErr(w, h.logger, apierr.BadRequest("valid email is required"))
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	if user != nil {
		code, err := h.codes.Create(req.Email, "login", nil)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		h.sendCode(r, req.Email, code.Code, "login", "")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "code_sent"})
}

type verifyRequest struct {
	Email         string `json:"email"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	HouseholdName string `json:"household_name"`
}

// Verify exchanges a valid code for a session. For registration codes it
// also creates the user, their household, and the free subscription.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeErr(w, h.logger, apierr.BadRequest("email and code are required"))
		return
	}

	code, err := h.codes.GetLatestByEmail(req.Email)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if code == nil || code.UsedAt != nil || time.Now().After(code.ExpiresAt) {
		writeErr(w, h.logger, apierr.BadRequest("invalid or expired code"))
		return
	}
	if code.Attempts >= maxCodeAttempts {
		writeErr(w, h.logger, apierr.BadRequest("too many attempts, request a new code"))
		return
	}
	if code.Code != req.Code {
		if _, err := h.codes.IncrementAttempts(code.ID); err != nil {
			h.logger.Error("increment code attempts", "error", err)
		}
		writeErr(w, h.logger, apierr.BadRequest("invalid or expired code"))
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	switch code.Purpose {
	case "register":
		if user != nil {
			// Account appeared between request and verify; sign in.
			break
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = strings.Split(req.Email, "@")[0]
		}
		user, err = h.users.Create(req.Email, name)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}

		householdName := strings.TrimSpace(req.HouseholdName)
		if householdName == "" {
			householdName = name + "'s Home"
		}
		household, err := h.households.Create(householdName)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		if _, err := h.households.AddMember(household.ID, user.ID, "owner"); err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		if err := h.households.SeedDefaults(household.ID); err != nil {
			h.logger.Error("seed household defaults", "error", err)
		}
		if _, err := h.subs.Create(household.ID, "free"); err != nil {
			h.logger.Error("create free subscription", "error", err)
		}

	case "invite":
		if code.HouseholdID == nil {
			writeErr(w, h.logger, apierr.BadRequest("invalid or expired code"))
			return
		}
		if user == nil {
			name := strings.TrimSpace(req.Name)
			if name == "" {
				name = strings.Split(req.Email, "@")[0]
			}
			user, err = h.users.Create(req.Email, name)
			if err != nil {
				writeErr(w, h.logger, apierr.Upstream(err))
				return
			}
		}
		member, err := h.households.GetMemberByUser(user.ID)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		if member == nil {
			if _, err := h.households.AddMember(*code.HouseholdID, user.ID, "member"); err != nil {
				writeErr(w, h.logger, apierr.Upstream(err))
				return
			}
		}

	default: // login
		if user == nil {
			writeErr(w, h.logger, apierr.BadRequest("invalid or expired code"))
			return
		}
	}

	if err := h.codes.MarkUsed(code.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	csrfToken, csrfExpires := h.csrf.Issue(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"token":        sess.Token,
		"csrf_token":   csrfToken,
		"csrf_expires": csrfExpires,
	})
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CSRFToken issues a fresh token bound to the caller's session.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeErr(w, h.logger, apierr.Unauthorized())
		return
	}
	token, expires := h.csrf.Issue(ac.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token":   token,
		"csrf_expires": expires,
	})
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite emails a join code for the caller's household. Restricted to
// owners and admins.
func (h *AuthHandler) Invite(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can invite members"))
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeErr(w, h.logger, apierr.BadRequest("valid email is required"))
		return
	}

	householdID := auth.HouseholdID(r.Context())
	household, err := h.households.GetByID(householdID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if household == nil {
		writeErr(w, h.logger, apierr.NotFound("household"))
		return
	}

	code, err := h.codes.Create(req.Email, "invite", &householdID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	h.sendCode(r, req.Email, code.Code, "invite", household.Name)

	writeJSON(w, http.StatusOK, map[string]string{"status": "invite_sent"})
}

// Me returns the authenticated user and their membership.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeErr(w, h.logger, apierr.Unauthorized())
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if user == nil {
		writeErr(w, h.logger, apierr.NotFound("user"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"household_id": ac.HouseholdID,
		"role":         ac.Role,
	})
}

func (h *AuthHandler) sendCode(r *http.Request, to, code, purpose, householdName string) {
	if !h.mailer.Configured() {
		h.logger.Info("email not configured, skipping code delivery", "purpose", purpose)
		return
	}
	if err := h.mailer.SendSignInCode(r.Context(), to, code, purpose, householdName); err != nil {
		h.logger.Error("send sign-in code", "purpose", purpose, "error", err)
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
