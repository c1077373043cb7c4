package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meal-planner/internal/export"
	"meal-planner/internal/shopping"
)

func (a *API) getShoppingList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.Shopping.Get(r.Context(), householdFrom(r.Context()).ID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// nextShoppingList serves the list of the household's next plan.
func (a *API) nextShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := a.Shopping.Next(r.Context(), householdFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// updateShoppingList replaces the checked state of a plan's list. The plan
// comes from the URL when present, else from the body.
func (a *API) updateShoppingList(w http.ResponseWriter, r *http.Request) {
	var in shopping.List
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if chi.URLParam(r, "id") != "" {
		id, err := idParam(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if in.Plan.ID != 0 && in.Plan.ID != id {
			a.fail(w, r, fmt.Errorf("%w: plan id %d does not match the URL", errBadRequest, in.Plan.ID))
			return
		}
		in.Plan.ID = id
	}

	list, err := a.Shopping.Update(r.Context(), householdFrom(r.Context()).ID, in)
	a.Metrics.ShoppingWrite(err)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) exportShoppingList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.Shopping.Get(r.Context(), householdFrom(r.Context()).ID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(*list)))
	if err := export.WriteShoppingList(w, *list); err != nil {
		a.Logger.Error("shopping list export failed", zap.Int64("plan_id", id), zap.Error(err))
	}
}

type shareRequest struct {
	ChatID int64 `json:"chat_id"`
}

func (a *API) shareShoppingList(w http.ResponseWriter, r *http.Request) {
	if a.Sharer == nil {
		a.fail(w, r, fmt.Errorf("sharing: %w", errNotConfigured))
		return
	}
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in shareRequest
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.ChatID == 0 {
		a.fail(w, r, errors.Join(errBadRequest, errors.New("chat_id is required")))
		return
	}
	list, err := a.Shopping.Get(r.Context(), householdFrom(r.Context()).ID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Sharer.Share(r.Context(), in.ChatID, *list); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
