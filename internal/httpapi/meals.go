package httpapi

import (
	"net/http"

	"meal-planner/internal/meal"
)

func (a *API) listMeals(w http.ResponseWriter, r *http.Request) {
	if slug := r.URL.Query().Get("slug"); slug != "" {
		m, err := a.Meals.GetBySlug(r.Context(), slug)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}
	meals, err := a.Meals.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (a *API) getMeal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Meals.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) createMeal(w http.ResponseWriter, r *http.Request) {
	var in meal.Meal
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Meals.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) updateMeal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in meal.Meal
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.Meals.Update(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) deleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Meals.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
