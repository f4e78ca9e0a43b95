package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v84"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/billing"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/store"
)

// Stripe webhook bodies are small; cap reads defensively.
const maxWebhookBody = 1 << 16

type SubscriptionHandler struct {
	households *store.HouseholdStore
	subs       *store.SubscriptionStore
	users      *store.UserStore
	stripe     *billing.Client
	logger     *slog.Logger
}

func NewSubscriptionHandler(hs *store.HouseholdStore, subs *store.SubscriptionStore, us *store.UserStore, sc *billing.Client, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		households: hs,
		subs:       subs,
		users:      us,
		stripe:     sc,
		logger:     logger.With("component", "billing"),
	}
}

// Get returns the household's subscription, plan, and feature set.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	sub, err := h.subs.GetByHousehold(householdID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	plan := entitlement.ParsePlan(household.Plan)
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":         plan,
		"features":     entitlement.Features(plan),
		"subscription": sub,
	})
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// Checkout creates a Stripe checkout session for a paid plan. Owners and
// admins only.
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can manage billing"))
		return
	}
	if !h.stripe.Configured() {
		writeErr(w, h.logger, apierr.New(apierr.KindUpstream, "billing is not configured"))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	priceID := h.stripe.PriceIDForPlan(req.Plan)
	if priceID == "" {
		writeErr(w, h.logger, apierr.BadRequest("plan must be pro or pro_plus"))
		return
	}

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

	customerID := household.StripeCustomerID
	if customerID == "" {
		user, err := h.users.GetByID(ac.UserID)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		if user == nil {
			writeErr(w, h.logger, apierr.NotFound("user"))
			return
		}
		customerID, err = h.stripe.CreateCustomer(user.Email, household.Name)
		if err != nil {
			writeErr(w, h.logger, apierr.Wrap(apierr.KindUpstream, "billing provider error", err))
			return
		}
		if err := h.households.UpdateStripeCustomerID(household.ID, customerID); err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
	}

	url, err := h.stripe.CreateCheckoutSession(customerID, priceID)
	if err != nil {
		writeErr(w, h.logger, apierr.Wrap(apierr.KindUpstream, "billing provider error", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

type portalRequest struct {
	ReturnURL string `json:"return_url"`
}

// Portal creates a Stripe billing portal session. Owners and admins only.
func (h *SubscriptionHandler) Portal(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can manage billing"))
		return
	}
	if !h.stripe.Configured() {
		writeErr(w, h.logger, apierr.New(apierr.KindUpstream, "billing is not configured"))
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}

	household, err := h.households.GetByID(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if household == nil || household.StripeCustomerID == "" {
		writeErr(w, h.logger, apierr.BadRequest("no billing account for this household"))
		return
	}

	url, err := h.stripe.CreateBillingPortalSession(household.StripeCustomerID, req.ReturnURL)
	if err != nil {
		writeErr(w, h.logger, apierr.Wrap(apierr.KindUpstream, "billing provider error", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook handles Stripe events. It is unauthenticated; the event
// signature is the credential.
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("unreadable payload"))
		return
	}

	event, err := h.stripe.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		writeErr(w, h.logger, apierr.BadRequest("invalid signature"))
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			writeErr(w, h.logger, apierr.BadRequest("malformed event payload"))
			return
		}
		if err := h.applySubscription(&sub); err != nil {
			writeErr(w, h.logger, err)
			return
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			writeErr(w, h.logger, apierr.BadRequest("malformed event payload"))
			return
		}
		if err := h.cancelSubscription(&sub); err != nil {
			writeErr(w, h.logger, err)
			return
		}

	default:
		// Acknowledge event types we don't act on.
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

func (h *SubscriptionHandler) applySubscription(sub *stripe.Subscription) error {
	if sub.Customer == nil {
		return apierr.BadRequest("event has no customer")
	}

	household, err := h.households.GetByStripeCustomerID(sub.Customer.ID)
	if err != nil {
		return apierr.Upstream(err)
	}
	if household == nil {
		h.logger.Warn("webhook for unknown customer", "customer_id", sub.Customer.ID)
		return nil
	}

	plan := "free"
	var periodEnd *time.Time
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			plan = h.stripe.PlanForPriceID(item.Price.ID)
		}
		if item.CurrentPeriodEnd > 0 {
			t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			periodEnd = &t
		}
	}

	// Past-due and canceled subscriptions drop to the free tier.
	effective := plan
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		effective = "free"
	}
	if err := h.households.UpdatePlan(household.ID, effective); err != nil {
		return apierr.Upstream(err)
	}

	record, err := h.subs.GetByHousehold(household.ID)
	if err != nil {
		return apierr.Upstream(err)
	}
	if record == nil {
		record, err = h.subs.Create(household.ID, plan)
		if err != nil {
			return apierr.Upstream(err)
		}
	}
	if err := h.subs.UpdateStripeID(record.ID, sub.ID); err != nil {
		return apierr.Upstream(err)
	}
	if err := h.subs.UpdatePlan(record.ID, plan); err != nil {
		return apierr.Upstream(err)
	}
	if err := h.subs.UpdateStatus(record.ID, string(sub.Status), periodEnd, sub.CancelAtPeriodEnd); err != nil {
		return apierr.Upstream(err)
	}

	h.logger.Info("subscription synced", "household_id", household.ID, "plan", effective, "status", sub.Status)
	return nil
}

func (h *SubscriptionHandler) cancelSubscription(sub *stripe.Subscription) error {
	record, err := h.subs.GetByStripeID(sub.ID)
	if err != nil {
		return apierr.Upstream(err)
	}
	if record == nil {
		return nil
	}

	if err := h.households.UpdatePlan(record.HouseholdID, "free"); err != nil {
		return apierr.Upstream(err)
	}
	if err := h.subs.UpdatePlan(record.ID, "free"); err != nil {
		return apierr.Upstream(err)
	}
	if err := h.subs.UpdateStatus(record.ID, "canceled", nil, false); err != nil {
		return apierr.Upstream(err)
	}

	h.logger.Info("subscription canceled", "household_id", record.HouseholdID)
	return nil
}
