package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/mailparse"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/shopping"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type EmailHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	inbound    *store.InboundEmailStore
	shopping   *store.ShoppingStore
	events     *store.EventStore
	quota      *entitlement.QuotaChecker
	hub        *websocket.Hub
	token      string // shared secret for the inbound webhook
	logger     *slog.Logger
}

func NewEmailHandler(
	us *store.UserStore,
	hs *store.HouseholdStore,
	is *store.InboundEmailStore,
	ss *store.ShoppingStore,
	es *store.EventStore,
	quota *entitlement.QuotaChecker,
	hub *websocket.Hub,
	token string,
	logger *slog.Logger,
) *EmailHandler {
	return &EmailHandler{
		users:      us,
		households: hs,
		inbound:    is,
		shopping:   ss,
		events:     es,
		quota:      quota,
		hub:        hub,
		token:      token,
		logger:     logger.With("component", "email_parse"),
	}
}

type inboundEmailRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Inbound handles the email provider's webhook. The provider
// authenticates with a shared token; the sender address is matched to a
// registered user to find the target household.
func (h *EmailHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	if h.token == "" || subtle.ConstantTimeCompare([]byte(r.URL.Query().Get("token")), []byte(h.token)) != 1 {
		writeErr(w, h.logger, apierr.Unauthorized())
		return
	}

	var req inboundEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.From = normalizeEmail(req.From)
	if req.From == "" {
		writeErr(w, h.logger, apierr.BadRequest("from is required"))
		return
	}

	user, err := h.users.GetByEmail(req.From)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if user == nil {
		// Unknown sender. Acknowledge so the provider stops retrying.
		h.logger.Info("inbound email from unknown sender")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	member, err := h.households.GetMemberByUser(user.ID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if member == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	household, err := h.households.GetByID(member.HouseholdID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if household == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	plan := entitlement.ParsePlan(household.Plan)
	if !entitlement.CanAccess(plan, entitlement.FeatureEmailParsing) {
		writeErr(w, h.logger, apierr.Forbidden("email parsing requires the Pro+ plan").WithCode("UPGRADE_REQUIRED"))
		return
	}

	allowed, err := h.quota.Consume(r.Context(), household.ID, plan, entitlement.FeatureEmailParsing)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if !allowed {
		writeErr(w, h.logger, apierr.Forbidden("monthly email parsing quota exhausted").WithCode("QUOTA_EXCEEDED"))
		return
	}

	result := mailparse.Parse(req.Subject, req.Text, time.Now())
	itemsAdded := h.applyItems(household.ID, user.ID, result.Items)
	eventsAdded := h.applyEvents(household.ID, user.ID, result.Events)

	status := "parsed"
	if itemsAdded == 0 && eventsAdded == 0 {
		status = "empty"
	}
	record, err := h.inbound.Create(household.ID, req.From, req.Subject, status, itemsAdded, eventsAdded)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	if itemsAdded > 0 || eventsAdded > 0 {
		h.hub.BroadcastTo(household.ID, websocket.NewMessage("email", "parsed", record.ID, map[string]any{
			"items_added":  itemsAdded,
			"events_added": eventsAdded,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"items_added":  itemsAdded,
		"events_added": eventsAdded,
	})
}

func (h *EmailHandler) applyItems(householdID, userID int64, items []mailparse.Item) int {
	if len(items) == 0 {
		return 0
	}
	list, err := h.shopping.GetDefaultList(householdID)
	if err != nil || list == nil {
		h.logger.Error("get default shopping list", "error", err)
		return 0
	}

	added := 0
	for _, item := range items {
		_, err := h.shopping.CreateItem(householdID, list.ID, item.Name, item.Quantity, item.Unit, "", shopping.Categorize(item.Name), &userID)
		if err != nil {
			h.logger.Error("add parsed item", "error", err)
			continue
		}
		added++
	}
	return added
}

func (h *EmailHandler) applyEvents(householdID, userID int64, events []mailparse.Event) int {
	added := 0
	for _, ev := range events {
		_, err := h.events.Create(householdID, ev.Title, "", "", ev.Start, ev.End, false, "", &userID)
		if err != nil {
			h.logger.Error("add parsed event", "error", err)
			continue
		}
		added++
	}
	return added
}

// History lists recent parse records for the caller's household.
func (h *EmailHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.inbound.ListByHousehold(auth.HouseholdID(r.Context()), 50)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if records == nil {
		records = []model.InboundEmail{}
	}
	writeJSON(w, http.StatusOK, records)
}
