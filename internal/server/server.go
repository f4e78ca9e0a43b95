// Package server wires stores, services, and handlers into the HTTP API.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/backup"
	"github.com/hearthapp/hearth/internal/billing"
	"github.com/hearthapp/hearth/internal/config"
	"github.com/hearthapp/hearth/internal/email"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/handler"
	"github.com/hearthapp/hearth/internal/logging"
	"github.com/hearthapp/hearth/internal/middleware"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/store"
	ws "github.com/hearthapp/hearth/internal/websocket"
)

type Server struct {
	db  *sql.DB
	cfg *config.Config
	hub *ws.Hub

	gate        *middleware.Gate
	rateLimiter *middleware.RateLimiter

	authH         *handler.AuthHandler
	householdH    *handler.HouseholdHandler
	shoppingH     *handler.ShoppingHandler
	mealH         *handler.MealHandler
	eventH        *handler.EventHandler
	choreH        *handler.ChoreHandler
	rewardH       *handler.RewardHandler
	subscriptionH *handler.SubscriptionHandler
	emailH        *handler.EmailHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler

	sessionStore  *store.SessionStore
	codeStore     *store.SignInCodeStore
	pushScheduler *push.Scheduler
	backupManager *backup.Manager

	logger *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	securityLog := logging.Security(logger)
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)
	codeStore := store.NewSignInCodeStore(db)
	shoppingStore := store.NewShoppingStore(db)
	mealStore := store.NewMealStore(db)
	eventStore := store.NewEventStore(db)
	choreStore := store.NewChoreStore(db)
	rewardStore := store.NewRewardStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	usageStore := store.NewUsageStore(db)
	pushStore := store.NewPushStore(db)
	inboundStore := store.NewInboundEmailStore(db)
	backupStore := store.NewBackupStore(db)

	csrf := auth.NewCSRF(cfg.CSRFSecret)
	rateLimiter := middleware.NewRateLimiter()
	gate := middleware.NewGate(sessionStore, householdStore, csrf, rateLimiter, logger, securityLog)

	quota := entitlement.NewQuotaChecker(usageStore)

	mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
	stripeClient := billing.NewClient(billing.Config{
		SecretKey:      cfg.StripeSecretKey,
		WebhookSecret:  cfg.StripeWebhookSecret,
		ProPriceID:     cfg.ProPriceID,
		ProPlusPriceID: cfg.ProPlusPriceID,
		SuccessURL:     cfg.BaseURL + "/billing/success",
		CancelURL:      cfg.BaseURL + "/billing/cancel",
	})

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, "mailto:"+cfg.FromEmail)
	pushSched := push.NewScheduler(pushSvc, pushStore, eventStore, choreStore, logger)

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		DBPath:     cfg.DBPath,
		Passphrase: cfg.BackupPassphrase,
	}, db, backupStore, logger)

	secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")

	return &Server{
		db:  db,
		cfg: cfg,
		hub: hub,

		gate:        gate,
		rateLimiter: rateLimiter,

		authH:         handler.NewAuthHandler(userStore, householdStore, sessionStore, codeStore, subscriptionStore, csrf, mailer, secureCookies, logger),
		householdH:    handler.NewHouseholdHandler(householdStore, logger),
		shoppingH:     handler.NewShoppingHandler(shoppingStore, hub, pushSched, logger),
		mealH:         handler.NewMealHandler(mealStore, shoppingStore, householdStore, hub, logger),
		eventH:        handler.NewEventHandler(eventStore, hub, logger),
		choreH:        handler.NewChoreHandler(choreStore, userStore, householdStore, hub, logger),
		rewardH:       handler.NewRewardHandler(rewardStore, userStore, hub, logger),
		subscriptionH: handler.NewSubscriptionHandler(householdStore, subscriptionStore, userStore, stripeClient, logger),
		emailH:        handler.NewEmailHandler(userStore, householdStore, inboundStore, shoppingStore, eventStore, quota, hub, cfg.InboundEmailToken, logger),
		pushH:         handler.NewPushHandler(pushStore, householdStore, pushSvc, logger),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, householdStore, quota, logger),

		sessionStore:  sessionStore,
		codeStore:     codeStore,
		pushScheduler: pushSched,
		backupManager: backupMgr,

		logger: logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// SignInCodeStore returns the code store for cleanup tasks.
func (s *Server) SignInCodeStore() *store.SignInCodeStore {
	return s.codeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// Router assembles all routes behind their security profiles.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Profiles, from loosest to strictest. Every profile applies its rate
	// limit before anything else.
	open := middleware.SecureOptions{RateLimit: "api"}
	authCode := middleware.SecureOptions{RateLimit: "auth"}
	readAuth := middleware.SecureOptions{RateLimit: "api", RequireAuth: true}
	writeAuth := middleware.SecureOptions{RateLimit: "api", RequireAuth: true, RequireCSRF: true}
	writeShopping := middleware.SecureOptions{RateLimit: "shopping", RequireAuth: true, RequireCSRF: true}
	writeBilling := middleware.SecureOptions{RateLimit: "billing", RequireAuth: true, RequireCSRF: true}
	webhook := middleware.SecureOptions{RateLimit: "webhook"}

	mux.Handle("GET /health", s.gate.SecureFunc(open, s.health))

	// Onboarding (no session yet)
	mux.Handle("POST /api/auth/register", s.gate.SecureFunc(authCode, s.authH.Register))
	mux.Handle("POST /api/auth/login", s.gate.SecureFunc(authCode, s.authH.Login))
	mux.Handle("POST /api/auth/verify", s.gate.SecureFunc(authCode, s.authH.Verify))

	// Session management
	mux.Handle("GET /api/auth/me", s.gate.SecureFunc(readAuth, s.authH.Me))
	mux.Handle("GET /api/auth/csrf", s.gate.SecureFunc(readAuth, s.authH.CSRFToken))
	mux.Handle("POST /api/auth/logout", s.gate.SecureFunc(writeAuth, s.authH.Logout))
	mux.Handle("POST /api/auth/invite", s.gate.SecureFunc(writeAuth, s.authH.Invite))

	// Household
	mux.Handle("GET /api/household", s.gate.SecureFunc(readAuth, s.householdH.Get))
	mux.Handle("PUT /api/household", s.gate.SecureFunc(writeAuth, s.householdH.Update))
	mux.Handle("GET /api/household/members", s.gate.SecureFunc(readAuth, s.householdH.Members))
	mux.Handle("PUT /api/household/members/{user_id}/role", s.gate.SecureFunc(writeAuth, s.householdH.UpdateMemberRole))
	mux.Handle("DELETE /api/household/members/{user_id}", s.gate.SecureFunc(writeAuth, s.householdH.RemoveMember))

	// Shopping
	mux.Handle("GET /api/shopping-lists", s.gate.SecureFunc(readAuth, s.shoppingH.ListLists))
	mux.Handle("POST /api/shopping-lists", s.gate.SecureFunc(writeShopping, s.shoppingH.CreateList))
	mux.Handle("GET /api/shopping-lists/{list_id}/items", s.gate.SecureFunc(readAuth, s.shoppingH.ListItems))
	mux.Handle("POST /api/shopping-lists/{list_id}/items", s.gate.SecureFunc(writeShopping, s.shoppingH.CreateItem))
	mux.Handle("POST /api/shopping-lists/{list_id}/clear-checked", s.gate.SecureFunc(writeShopping, s.shoppingH.ClearChecked))
	mux.Handle("PUT /api/shopping-items/{id}", s.gate.SecureFunc(writeShopping, s.shoppingH.UpdateItem))
	mux.Handle("DELETE /api/shopping-items/{id}", s.gate.SecureFunc(writeShopping, s.shoppingH.DeleteItem))
	mux.Handle("POST /api/shopping-items/{id}/check", s.gate.SecureFunc(writeShopping, s.shoppingH.CheckItem))

	// Meal planning
	mux.Handle("GET /api/recipes", s.gate.SecureFunc(readAuth, s.mealH.ListRecipes))
	mux.Handle("POST /api/recipes", s.gate.SecureFunc(writeAuth, s.mealH.CreateRecipe))
	mux.Handle("GET /api/recipes/{id}", s.gate.SecureFunc(readAuth, s.mealH.GetRecipe))
	mux.Handle("PUT /api/recipes/{id}", s.gate.SecureFunc(writeAuth, s.mealH.UpdateRecipe))
	mux.Handle("DELETE /api/recipes/{id}", s.gate.SecureFunc(writeAuth, s.mealH.DeleteRecipe))
	mux.Handle("GET /api/meal-plan", s.gate.SecureFunc(readAuth, s.mealH.Plan))
	mux.Handle("POST /api/meal-plan/assign", s.gate.SecureFunc(writeAuth, s.mealH.Assign))
	mux.Handle("DELETE /api/meal-plan/{id}", s.gate.SecureFunc(writeAuth, s.mealH.DeleteEntry))

	// Calendar
	mux.Handle("GET /api/events", s.gate.SecureFunc(readAuth, s.eventH.List))
	mux.Handle("POST /api/events", s.gate.SecureFunc(writeAuth, s.eventH.Create))
	mux.Handle("GET /api/events/{id}", s.gate.SecureFunc(readAuth, s.eventH.Get))
	mux.Handle("PUT /api/events/{id}", s.gate.SecureFunc(writeAuth, s.eventH.Update))
	mux.Handle("DELETE /api/events/{id}", s.gate.SecureFunc(writeAuth, s.eventH.Delete))

	// Chores
	mux.Handle("GET /api/chores", s.gate.SecureFunc(readAuth, s.choreH.List))
	mux.Handle("POST /api/chores", s.gate.SecureFunc(writeAuth, s.choreH.Create))
	mux.Handle("GET /api/chores/{id}", s.gate.SecureFunc(readAuth, s.choreH.Get))
	mux.Handle("PUT /api/chores/{id}", s.gate.SecureFunc(writeAuth, s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", s.gate.SecureFunc(writeAuth, s.choreH.Delete))
	mux.Handle("POST /api/chores/{id}/complete", s.gate.SecureFunc(writeAuth, s.choreH.Complete))
	mux.Handle("DELETE /api/chores/completions/{id}", s.gate.SecureFunc(writeAuth, s.choreH.Uncomplete))

	// Rewards
	mux.Handle("GET /api/rewards", s.gate.SecureFunc(readAuth, s.rewardH.List))
	mux.Handle("POST /api/rewards", s.gate.SecureFunc(writeAuth, s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", s.gate.SecureFunc(writeAuth, s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", s.gate.SecureFunc(writeAuth, s.rewardH.Delete))
	mux.Handle("POST /api/rewards/{id}/redeem", s.gate.SecureFunc(writeAuth, s.rewardH.Redeem))
	mux.Handle("GET /api/leaderboard", s.gate.SecureFunc(readAuth, s.rewardH.Leaderboard))

	// Billing
	mux.Handle("GET /api/subscription", s.gate.SecureFunc(readAuth, s.subscriptionH.Get))
	mux.Handle("POST /api/subscription/checkout", s.gate.SecureFunc(writeBilling, s.subscriptionH.Checkout))
	mux.Handle("POST /api/subscription/portal", s.gate.SecureFunc(writeBilling, s.subscriptionH.Portal))
	mux.Handle("POST /webhooks/stripe", s.gate.SecureFunc(webhook, s.subscriptionH.Webhook))

	// Email parsing
	mux.Handle("POST /webhooks/email", s.gate.SecureFunc(webhook, s.emailH.Inbound))
	mux.Handle("GET /api/emails", s.gate.SecureFunc(readAuth, s.emailH.History))

	// Push
	mux.Handle("GET /api/push/vapid-key", s.gate.SecureFunc(readAuth, s.pushH.VAPIDKey))
	mux.Handle("POST /api/push/subscribe", s.gate.SecureFunc(writeAuth, s.pushH.Subscribe))
	mux.Handle("DELETE /api/push/subscriptions/{id}", s.gate.SecureFunc(writeAuth, s.pushH.Unsubscribe))

	// Backups
	mux.Handle("GET /api/backups", s.gate.SecureFunc(readAuth, s.backupH.List))
	mux.Handle("POST /api/backups", s.gate.SecureFunc(writeAuth, s.backupH.Run))
	mux.Handle("GET /api/backups/{id}/download", s.gate.SecureFunc(readAuth, s.backupH.Download))

	// Real-time sync. Browsers cannot set headers on the upgrade request,
	// so the socket is read-only and CSRF is not required.
	mux.Handle("GET /ws", s.gate.SecureFunc(readAuth, ws.Handler(s.hub, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
