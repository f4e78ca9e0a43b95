package handler

import (
	"log/slog"
	"net/http"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/store"
)

type PushHandler struct {
	subs       *store.PushStore
	households *store.HouseholdStore
	service    *push.Service
	logger     *slog.Logger
}

func NewPushHandler(ps *store.PushStore, hs *store.HouseholdStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		subs:       ps,
		households: hs,
		service:    svc,
		logger:     logger.With("component", "push"),
	}
}

// VAPIDKey returns the public key browsers need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		writeErr(w, h.logger, apierr.NotFound("push"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers a browser push subscription. Gated to plans with
// the push feature.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	household, err := h.households.GetByID(ac.HouseholdID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if household == nil {
		writeErr(w, h.logger, apierr.NotFound("household"))
		return
	}
	if !entitlement.CanAccess(entitlement.ParsePlan(household.Plan), entitlement.FeaturePush) {
		writeErr(w, h.logger, apierr.Forbidden("push notifications require the Pro plan").WithCode("UPGRADE_REQUIRED"))
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeErr(w, h.logger, apierr.BadRequest("endpoint and keys are required"))
		return
	}

	sub, err := h.subs.Upsert(ac.HouseholdID, &ac.UserID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe removes a subscription owned by the caller's household.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	sub, err := h.subs.Get(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if sub == nil {
		writeErr(w, h.logger, apierr.NotFound("subscription"))
		return
	}

	if err := h.subs.Delete(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
