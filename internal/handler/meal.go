package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/shopping"
	"github.com/hearthapp/hearth/internal/store"
	"github.com/hearthapp/hearth/internal/websocket"
)

var mealSlots = map[string]bool{"breakfast": true, "lunch": true, "dinner": true}

type MealHandler struct {
	meals      *store.MealStore
	shopping   *store.ShoppingStore
	households *store.HouseholdStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewMealHandler(ms *store.MealStore, ss *store.ShoppingStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *MealHandler {
	return &MealHandler{
		meals:      ms,
		shopping:   ss,
		households: hs,
		hub:        hub,
		logger:     logger.With("component", "meal"),
	}
}

// requirePlan gates every meal planning operation on the household's tier.
func (h *MealHandler) requirePlan(r *http.Request) *apierr.Error {
	household, err := h.households.GetByID(auth.HouseholdID(r.Context()))
	if err != nil {
		return apierr.Upstream(err)
	}
	if household == nil {
		return apierr.NotFound("household")
	}
	if !entitlement.CanAccess(entitlement.ParsePlan(household.Plan), entitlement.FeatureMealPlanning) {
		return apierr.Forbidden("meal planning requires the Pro plan").WithCode("UPGRADE_REQUIRED")
	}
	return nil
}

type recipeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

func (h *MealHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if aerr := h.requirePlan(r); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}

	recipe, err := h.meals.CreateRecipe(auth.HouseholdID(r.Context()), req.Name, req.Description, req.Ingredients)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *MealHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	if aerr := h.requirePlan(r); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	recipes, err := h.meals.ListRecipes(auth.HouseholdID(r.Context()))
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *MealHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}

	recipe, err := h.meals.GetRecipe(auth.HouseholdID(r.Context()), id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if recipe == nil {
		writeErr(w, h.logger, apierr.NotFound("recipe"))
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *MealHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.meals.GetRecipe(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("recipe"))
		return
	}

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, h.logger, apierr.BadRequest("name is required"))
		return
	}

	recipe, err := h.meals.UpdateRecipe(householdID, id, req.Name, req.Description, req.Ingredients)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *MealHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	existing, err := h.meals.GetRecipe(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if existing == nil {
		writeErr(w, h.logger, apierr.NotFound("recipe"))
		return
	}

	if err := h.meals.DeleteRecipe(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type assignRequest struct {
	RecipeID     int64  `json:"recipe_id"`
	Date         string `json:"date"` // YYYY-MM-DD
	Slot         string `json:"slot"`
	SyncShopping bool   `json:"sync_shopping"`
}

// Assign puts a recipe on the meal plan. When sync_shopping is set, the
// recipe's ingredients are also added to the default shopping list; if the
// assignment succeeds but some ingredients cannot be added, the response
// is 207 with a per-ingredient breakdown. The assignment is never rolled
// back on a partial failure.
func (h *MealHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if aerr := h.requirePlan(r); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	ac, _ := auth.FromContext(r.Context())

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid JSON"))
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("date must be YYYY-MM-DD"))
		return
	}
	if !mealSlots[req.Slot] {
		writeErr(w, h.logger, apierr.BadRequest("slot must be breakfast, lunch, or dinner"))
		return
	}

	recipe, err := h.meals.GetRecipe(ac.HouseholdID, req.RecipeID)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if recipe == nil {
		writeErr(w, h.logger, apierr.NotFound("recipe"))
		return
	}

	entry, err := h.meals.AssignMeal(ac.HouseholdID, recipe.ID, req.Date, req.Slot)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(ac.HouseholdID, websocket.NewMessage("meal_plan", "assigned", entry.ID, map[string]any{"date": entry.Date, "slot": entry.Slot}))

	if !req.SyncShopping || len(recipe.Ingredients) == 0 {
		writeJSON(w, http.StatusCreated, entry)
		return
	}

	added, failed := h.syncIngredients(ac, recipe.Ingredients)
	if len(failed) > 0 {
		apierr.Write(w, apierr.New(apierr.KindPartial, "meal assigned, but some ingredients were not added").WithDetails(map[string]any{
			"entry":        entry,
			"items_added":  added,
			"items_failed": failed,
		}))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":       entry,
		"items_added": added,
	})
}

// syncIngredients adds each ingredient to the default shopping list,
// continuing past individual failures.
func (h *MealHandler) syncIngredients(ac auth.AuthContext, ingredients []string) (added, failed []string) {
	list, err := h.shopping.GetDefaultList(ac.HouseholdID)
	if err != nil || list == nil {
		h.logger.Error("get default shopping list", "error", err)
		return nil, ingredients
	}

	for _, ing := range ingredients {
		ing = strings.TrimSpace(ing)
		if ing == "" {
			continue
		}
		_, err := h.shopping.CreateItem(ac.HouseholdID, list.ID, ing, "", "", "", shopping.Categorize(ing), &ac.UserID)
		if err != nil {
			h.logger.Error("sync ingredient", "ingredient", ing, "error", err)
			failed = append(failed, ing)
			continue
		}
		added = append(added, ing)
	}
	return added, failed
}

// Plan lists meal plan entries in a date range (default: the next 7 days).
func (h *MealHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if aerr := h.requirePlan(r); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" {
		from = time.Now().Format("2006-01-02")
	}
	if to == "" {
		to = time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", from); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("from must be YYYY-MM-DD"))
		return
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		writeErr(w, h.logger, apierr.BadRequest("to must be YYYY-MM-DD"))
		return
	}

	entries, err := h.meals.ListEntries(auth.HouseholdID(r.Context()), from, to)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if entries == nil {
		entries = []model.MealPlanEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *MealHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}
	householdID := auth.HouseholdID(r.Context())

	entry, err := h.meals.GetEntry(householdID, id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if entry == nil {
		writeErr(w, h.logger, apierr.NotFound("entry"))
		return
	}

	if err := h.meals.DeleteEntry(householdID, id); err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}

	h.hub.BroadcastTo(householdID, websocket.NewMessage("meal_plan", "unassigned", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
