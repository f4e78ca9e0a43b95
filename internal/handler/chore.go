package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/recurrence"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type ChoreHandler struct {
	chores     *store.ChoreStore
	users      *store.UserStore
	households *store.HouseholdStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, us *store.UserStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		chores:     cs,
		users:      us,
		households: hs,
		hub:        hub,
		logger:     logger.With("component", "chore"),
	}
}

type choreRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Points         int    `json:"points"`
	RecurrenceRule string `json:"recurrence_rule"`
	AssignedTo     *int64 `json:"assigned_to"`
}

func (h *ChoreHandler) validateChore(householdID int64, req *choreRequest) *apierr.Error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return apierr.BadRequest("title is required")
	}
	if req.Points < 0 {
		return apierr.BadRequest("points must not be negative")
	}
	if req.RecurrenceRule != "" {
		if _, err := recurrence.Parse(req.RecurrenceRule); err != nil {
			return apierr.BadRequest("invalid recurrence rule: " + err.Error())
		}
	}
	if req.AssignedTo != nil {
		member, err := h.households.GetMember(householdID, *req.AssignedTo)
		if err != nil {
			return apierr.Upstream(err)
		}
		if member == nil {
			return apierr.BadRequest("assigned_to is not a household member")
		}
	}
	return nil
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if aerr := h.validateChore(householdID, &req); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	chore, err := h.chores.Create(householdID, req.Title, req.Description, req.Points, req.RecurrenceRule, req.AssignedTo)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

// choreStatus augments a chore with its completion state.
type choreStatus struct {
	model.Chore
	Due             bool       `json:"due"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
	NextDueAt       *time.Time `json:"next_due_at,omitempty"`
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.chores.List(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	now := time.Now().UTC()
	statuses := make([]choreStatus, 0, len(chores))
	for _, chore := range chores {
		last, err := h.chores.LastCompletion(chore.ID)
		if err != nil {
			writeErr(w, h.logger, apierr.Upstream(err))
			return
		}
		statuses = append(statuses, choreDueStatus(chore, last, now))
	}
	writeJSON(w, http.StatusOK, statuses)
}

// choreDueStatus computes whether a chore is currently due. A chore with
// no completions is always due. A one-off chore is done once completed;
// a recurring chore comes due again at the first occurrence of its rule
// after the last completion.
func choreDueStatus(chore model.Chore, last *model.ChoreCompletion, now time.Time) choreStatus {
	st := choreStatus{Chore: chore}

	if last == nil {
		st.Due = true
		return st
	}
	st.LastCompletedAt = &last.CompletedAt

	if chore.RecurrenceRule == "" {
		return st
	}
	rule, err := recurrence.Parse(chore.RecurrenceRule)
	if err != nil {
		return st
	}

	next := recurrence.Expand(rule, chore.CreatedAt, last.CompletedAt, now.AddDate(1, 0, 0))
	for _, occ := range next {
		if occ.After(last.CompletedAt) {
			st.NextDueAt = &occ
			st.Due = !occ.After(now)
			break
		}
	}
	return st
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}

	chore, err := h.chores.GetByID(auth.HouseholdID(r.Context()), id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if chore == nil {
		writeErr(w, h.logger, apierr.NotFound("chore"))
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.chores.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("chore"))
		return
	}

	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if aerr := h.validateChore(householdID, &req); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	chore, err := h.chores.Update(householdID, id, req.Title, req.Description, req.Points, req.RecurrenceRule, req.AssignedTo)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("chore", "updated", chore.ID, nil))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.chores.GetByID(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("chore"))
		return
	}

	if err := h.chores.Delete(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("chore", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Complete records a completion and credits the caller with XP and coins
// based on the chore's points.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	ac, _ := auth.FromContext(r.Context())

	chore, err := h.chores.GetByID(ac.HouseholdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if chore == nil {
		writeErr(w, h.logger, apierr.NotFound("chore"))
		return
	}

	completion, err := h.chores.Complete(chore.ID, &ac.UserID, chore.Points)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	if chore.Points > 0 {
		if err := h.users.AddXP(ac.UserID, chore.Points); err != nil {
			h.logger.Error("award xp", "user_id", ac.UserID, "error", err)
		}
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("chore", "completed", chore.ID, map[string]any{"completed_by": ac.UserID}))
	writeJSON(w, http.StatusCreated, completion)
}

// Uncomplete undoes a completion and claws back the awarded points.
func (h *ChoreHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	completion, err := h.chores.GetCompletion(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if completion == nil {
		writeErr(w, h.logger, apierr.NotFound("completion"))
		return
	}

	if err := h.chores.DeleteCompletion(completion.ID); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if completion.CompletedBy != nil && completion.PointsAwarded > 0 {
		if err := h.users.AddXP(*completion.CompletedBy, -completion.PointsAwarded); err != nil {
			h.logger.Error("claw back xp", "user_id", *completion.CompletedBy, "error", err)
		}
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("chore", "uncompleted", completion.ChoreID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}
