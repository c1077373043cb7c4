package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"meal-planner/internal/pantry"
)

func (a *API) getHousehold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, householdFrom(r.Context()))
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.Households.Members(r.Context(), householdFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (a *API) createJoinCode(w http.ResponseWriter, r *http.Request) {
	code, err := a.Households.CreateJoinCode(r.Context(), householdFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (a *API) joinHousehold(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p := principalFrom(r.Context())
	h, err := a.Households.Join(r.Context(), p.UserID, p.Email, in.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info("user joined household", zap.Int64("user_id", p.UserID), zap.Int64("household_id", h.ID))
	writeJSON(w, http.StatusOK, h)
}

func (a *API) leaveHousehold(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	h, err := a.Households.Leave(r.Context(), p.UserID, p.Email, p.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) removeMember(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID int64 `json:"user_id"`
	}
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.UserID == 0 {
		a.fail(w, r, errors.Join(errBadRequest, errors.New("user_id is required")))
		return
	}
	if err := a.Households.Remove(r.Context(), principalFrom(r.Context()).UserID, in.UserID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getPantry(w http.ResponseWriter, r *http.Request) {
	p, err := a.Pantries.Get(r.Context(), householdFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) replacePantry(w http.ResponseWriter, r *http.Request) {
	var in pantry.Pantry
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Pantries.Replace(r.Context(), householdFrom(r.Context()).ID, in.Items)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) clearPantry(w http.ResponseWriter, r *http.Request) {
	if err := a.Pantries.Clear(r.Context(), householdFrom(r.Context()).ID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
