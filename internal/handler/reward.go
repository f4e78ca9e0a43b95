package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type RewardHandler struct {
	rewards *store.RewardStore
	users   *store.UserStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{
		rewards: rs,
		users:   us,
		hub:     hub,
		logger:  logger.With("component", "reward"),
	}
}

type rewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PointCost   int    `json:"point_cost"`
	Active      *bool  `json:"active"`
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can manage rewards"))
		return
	}

	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeErr(w, h.logger, apierr.BadRequest("title is required"))
		return
	}
	if req.PointCost <= 0 {
		writeErr(w, h.logger, apierr.BadRequest("point_cost must be positive"))
		return
	}

	reward, err := h.rewards.Create(auth.HouseholdID(r.Context()), req.Title, req.Description, req.PointCost)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	rewards, err := h.rewards.List(auth.HouseholdID(r.Context()), activeOnly)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can manage rewards"))
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.rewards.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("reward"))
		return
	}

	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeErr(w, h.logger, apierr.BadRequest("title is required"))
		return
	}
	if req.PointCost <= 0 {
		writeErr(w, h.logger, apierr.BadRequest("point_cost must be positive"))
		return
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	reward, err := h.rewards.Update(householdID, id, req.Title, req.Description, req.PointCost, active)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can manage rewards"))
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.rewards.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("reward"))
		return
	}

	if err := h.rewards.Delete(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Redeem spends the caller's coins on a reward. The coin deduction is
// conditional on a sufficient balance, so two concurrent redemptions
// cannot overdraw.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	ac, _ := auth.FromContext(r.Context())

	reward, err := h.rewards.GetByID(ac.HouseholdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if reward == nil || !reward.Active {
		writeErr(w, h.logger, apierr.NotFound("reward"))
		return
	}

	ok, err := h.users.SpendCoins(ac.UserID, reward.PointCost)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if !ok {
		writeErr(w, h.logger, apierr.BadRequest("insufficient points").WithCode("INSUFFICIENT_POINTS"))
		return
	}

	redemption, err := h.rewards.Redeem(reward.ID, &ac.UserID, reward.PointCost)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("reward", "redeemed", reward.ID, map[string]any{"redeemed_by": ac.UserID}))
	writeJSON(w, http.StatusCreated, redemption)
}

// Leaderboard returns per-member point balances.
func (h *RewardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	balances, err := h.rewards.Leaderboard(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if balances == nil {
		balances = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}
