package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"meal-planner/internal/planner"
)

// listPlans lists the household's plans. ?last, ?next and ?future narrow it
// the same way the plan overview does.
func (a *API) listPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hh := householdFrom(ctx).ID
	q := r.URL.Query()

	var (
		v   any
		err error
	)
	switch {
	case q.Has("last"):
		v, err = a.Plans.Last(ctx, hh)
	case q.Has("next"):
		v, err = a.Plans.Next(ctx, hh, a.today())
	case q.Has("future"):
		var plans []planner.Plan
		plans, err = a.Plans.Future(ctx, hh, a.today())
		if plans == nil {
			plans = []planner.Plan{}
		}
		v = plans
	default:
		var plans []planner.Plan
		plans, err = a.Plans.ListByHousehold(ctx, hh)
		if plans == nil {
			plans = []planner.Plan{}
		}
		v = plans
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ownedPlan loads the plan in the URL and checks it belongs to the caller's
// household.
func (a *API) ownedPlan(r *http.Request) (*planner.Plan, error) {
	id, err := idParam(r)
	if err != nil {
		return nil, err
	}
	p, err := a.Plans.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if p.HouseholdID != householdFrom(r.Context()).ID {
		return nil, planner.ErrForbidden
	}
	return p, nil
}

func (a *API) getPlan(w http.ResponseWriter, r *http.Request) {
	p, err := a.ownedPlan(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createPlan(w http.ResponseWriter, r *http.Request) {
	var in planner.Plan
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.Validate(a.today()); err != nil {
		a.fail(w, r, err)
		return
	}
	in.HouseholdID = householdFrom(r.Context()).ID
	p, err := a.Plans.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// updatePlan replaces the meals and, when given, the dates. Omitted dates keep
// their stored values and past dates are accepted, so a plan that has started
// can still change. The shopping list is derived from the meals, so clients
// holding it must refetch.
func (a *API) updatePlan(w http.ResponseWriter, r *http.Request) {
	current, err := a.ownedPlan(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in planner.Plan
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.StartDate.IsZero() {
		in.StartDate = current.StartDate
	}
	if in.EndDate.IsZero() {
		in.EndDate = current.EndDate
	}
	if err := in.ValidateRange(); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Plans.Update(r.Context(), current.ID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Debug("plan updated; shopping list is stale", zap.Int64("plan_id", p.ID))
	writeJSON(w, http.StatusOK, p)
}

// planIngredients lists the raw ingredient rows of the plan's meals, without
// merging or pantry filtering.
func (a *API) planIngredients(w http.ResponseWriter, r *http.Request) {
	p, err := a.ownedPlan(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ings, err := a.Plans.Ingredients(r.Context(), p.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if ings == nil {
		ings = []planner.Ingredient{}
	}
	writeJSON(w, http.StatusOK, ings)
}

func (a *API) deletePlan(w http.ResponseWriter, r *http.Request) {
	p, err := a.ownedPlan(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Plans.Delete(r.Context(), p.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
