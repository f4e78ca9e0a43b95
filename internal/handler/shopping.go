package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/push"
	"github.com/hearthapp/hearth/internal/shopping"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

type ShoppingHandler struct {
	shopping  *store.ShoppingStore
	hub       *websocket.Hub
	scheduler *push.Scheduler
	logger    *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, hub *websocket.Hub, scheduler *push.Scheduler, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{
		shopping:  ss,
		hub:       hub,
		scheduler: scheduler,
		logger:    logger.With("component", "shopping"),
	}
}

type listRequest struct {
	Name string `json:"name"`
}

func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}

	list, err := h.shopping.CreateList(auth.HouseholdID(r.Context()), req.Name)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *ShoppingHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.shopping.ListLists(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ShoppingHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid list_id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	list, err := h.shopping.GetList(householdID, listID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if list == nil {
		writeErr(w, h.logger, apierr.NotFound("list"))
		return
	}

	items, err := h.shopping.ListItems(householdID, listID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type itemRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Notes    string `json:"notes"`
	Category string `json:"category"`
}

func (h *ShoppingHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid list_id"))
		return
	}
	ac, _ := auth.FromContext(r.Context())

	list, err := h.shopping.GetList(ac.HouseholdID, listID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if list == nil {
		writeErr(w, h.logger, apierr.NotFound("list"))
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}
	if req.Category == "" {
		req.Category = shopping.Categorize(req.Name)
	}

	item, err := h.shopping.CreateItem(ac.HouseholdID, listID, req.Name, req.Quantity, req.Unit, req.Notes, req.Category, &ac.UserID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("shopping_item", "created", item.ID, nil))
	go h.scheduler.NotifyItemAdded(ac.HouseholdID, ac.UserID, item.Name)

	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.shopping.GetItem(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("item"))
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}
	if req.Category == "" {
		req.Category = existing.Category
	}

	item, err := h.shopping.UpdateItem(householdID, id, req.Name, req.Quantity, req.Unit, req.Notes, req.Category)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("shopping_item", "updated", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.shopping.GetItem(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("item"))
		return
	}

	if err := h.shopping.DeleteItem(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("shopping_item", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type checkRequest struct {
	Checked bool `json:"checked"`
}

func (h *ShoppingHandler) CheckItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	ac, _ := auth.FromContext(r.Context())

	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}

	item, err := h.shopping.SetChecked(ac.HouseholdID, id, req.Checked, &ac.UserID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if item == nil {
		writeErr(w, h.logger, apierr.NotFound("item"))
		return
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("shopping_item", "checked", item.ID, map[string]any{"checked": item.Checked}))
	writeJSON(w, http.StatusOK, item)
}

// ClearChecked deletes all checked items from a list.
func (h *ShoppingHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid list_id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	list, err := h.shopping.GetList(householdID, listID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if list == nil {
		writeErr(w, h.logger, apierr.NotFound("list"))
		return
	}

	n, err := h.shopping.ClearChecked(householdID, listID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("shopping_list", "cleared", listID, map[string]any{"removed": n}))
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}
