package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, logger: logger.With("component", "household")}
}

// Get returns the caller's household.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.GetByID(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if household == nil {
		writeErr(w, h.logger, apierr.NotFound("household"))
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type householdUpdateRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can rename the household"))
		return
	}

	var req householdUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}

	household, err := h.households.Update(auth.HouseholdID(r.Context()), req.Name)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Members lists the household's members.
func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.households.ListMembers(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole changes a member's role. Only owners may change roles,
// and the owner role itself cannot be granted or revoked here.
func (h *HouseholdHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if ac.Role != "owner" {
		writeErr(w, h.logger, apierr.Forbidden("only the owner can change roles"))
		return
	}

	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid user_id"))
		return
	}

	var req roleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if req.Role != "admin" && req.Role != "member" {
		writeErr(w, h.logger, apierr.BadRequest("role must be admin or member"))
		return
	}

	target, err := h.households.GetMember(ac.HouseholdID, userID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if target == nil {
		writeErr(w, h.logger, apierr.NotFound("member"))
		return
	}
	if target.Role == "owner" {
		writeErr(w, h.logger, apierr.BadRequest("the owner role cannot be changed"))
		return
	}

	member, err := h.households.UpdateMemberRole(ac.HouseholdID, userID, req.Role)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// RemoveMember removes a member from the household. Owners and admins
// only; the owner cannot be removed.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !auth.IsOwnerOrAdmin(r.Context()) {
		writeErr(w, h.logger, apierr.Forbidden("only owners and admins can remove members"))
		return
	}

	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid user_id"))
		return
	}

	target, err := h.households.GetMember(ac.HouseholdID, userID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if target == nil {
		writeErr(w, h.logger, apierr.NotFound("member"))
		return
	}
	if target.Role == "owner" {
		writeErr(w, h.logger, apierr.BadRequest("the owner cannot be removed"))
		return
	}

	if err := h.households.RemoveMember(ac.HouseholdID, userID); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
