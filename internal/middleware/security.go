package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/store"
)

const (
	// SessionCookieName is the cookie carrying the opaque session token.
	SessionCookieName = "hearth_session"

	// CSRFHeader carries the session-bound anti-forgery token on
	// state-changing requests.
	CSRFHeader = "X-CSRF-Token"
)

// SecureOptions selects which checks Gate.Secure applies, in fixed order:
// rate limit, then authentication, then CSRF.
type SecureOptions struct {
	// RateLimit names a config in the limits table. Empty disables the check.
	RateLimit string

	RequireAuth bool
	RequireCSRF bool
}

// Gate composes rate limiting, session authentication, membership
// resolution, and CSRF validation around handlers, producing a uniform
// JSON error contract.
type Gate struct {
	sessions   *store.SessionStore
	households *store.HouseholdStore
	csrf       *auth.CSRF
	limiter    *RateLimiter
	limits     map[string]LimitConfig
	logger     *slog.Logger
	security   *slog.Logger
}

func NewGate(sessions *store.SessionStore, households *store.HouseholdStore, csrf *auth.CSRF, limiter *RateLimiter, logger, security *slog.Logger) *Gate {
	return &Gate{
		sessions:   sessions,
		households: households,
		csrf:       csrf,
		limiter:    limiter,
		limits:     DefaultLimits,
		logger:     logger,
		security:   security,
	}
}

// Secure wraps next with the configured checks. The rate limit is applied
// before authentication so abusive clients never cost a session lookup.
func (g *Gate) Secure(opts SecureOptions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				g.logger.Error("handler panic", "panic", rec, "path", r.URL.Path)
				apierr.Write(w, apierr.New(apierr.KindInternal, "internal error"))
			}
		}()

		if opts.RateLimit != "" {
			cfg, ok := g.limits[opts.RateLimit]
			if !ok {
				cfg = g.limits["api"]
			}
			key := opts.RateLimit + ":" + RealIP(r)
			if !g.limiter.Allow(key, cfg.Limit, cfg.Window) {
				g.security.Warn("rate limit exceeded", "config", opts.RateLimit, "remote", RealIP(r))
				apierr.Write(w, apierr.New(apierr.KindRateLimited, "too many requests"))
				return
			}
		}

		if !opts.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}

		token := sessionToken(r)
		if token == "" {
			g.security.Warn("unauthenticated request", "path", r.URL.Path, "remote", RealIP(r))
			apierr.Write(w, apierr.Unauthorized())
			return
		}

		sess, err := g.sessions.GetByToken(token)
		if err != nil {
			g.logger.Error("session lookup", "error", err)
			apierr.Write(w, apierr.Upstream(err))
			return
		}
		if sess == nil {
			g.security.Warn("invalid session token", "path", r.URL.Path, "remote", RealIP(r))
			apierr.Write(w, apierr.Unauthorized())
			return
		}

		// Membership is re-derived on every request; a valid session with
		// no household is a 404, never a 401.
		member, err := g.households.GetMemberByUser(sess.UserID)
		if err != nil {
			g.logger.Error("membership lookup", "error", err)
			apierr.Write(w, apierr.Upstream(err))
			return
		}
		if member == nil {
			apierr.Write(w, apierr.NotFound("household"))
			return
		}

		if opts.RequireCSRF {
			csrfToken := r.Header.Get(CSRFHeader)
			if csrfToken == "" || !g.csrf.Validate(sess.ID, csrfToken) {
				g.security.Warn("csrf validation failed", "path", r.URL.Path, "user_id", sess.UserID)
				apierr.Write(w, apierr.Forbidden("invalid or missing CSRF token"))
				return
			}
		}

		ac := auth.AuthContext{
			UserID:      sess.UserID,
			HouseholdID: member.HouseholdID,
			Role:        member.Role,
			SessionID:   sess.ID,
		}
		next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
	})
}

// SecureFunc is Secure for plain handler functions.
func (g *Gate) SecureFunc(opts SecureOptions, next http.HandlerFunc) http.HandlerFunc {
	return g.Secure(opts, next).ServeHTTP
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
