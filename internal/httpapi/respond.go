package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meal-planner/internal/auth"
	"meal-planner/internal/clipper"
	"meal-planner/internal/household"
	"meal-planner/internal/images"
	"meal-planner/internal/meal"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
	"meal-planner/internal/telegram"
)

const maxBody = 1 << 20

var (
	errBadRequest    = errors.New("invalid request")
	errNotConfigured = errors.New("not configured on this server")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, recipe.ErrValidation),
		errors.Is(err, meal.ErrValidation),
		errors.Is(err, planner.ErrInvalidDates),
		errors.Is(err, household.ErrInvalidJoinCode),
		errors.Is(err, household.ErrRemoveSelf),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, images.ErrUnsupported),
		errors.Is(err, images.ErrTooLarge),
		errors.Is(err, shopping.ErrMissingPlanContext),
		errors.Is(err, telegram.ErrNothingToShare),
		errors.Is(err, clipper.ErrNoRecipe):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, planner.ErrForbidden),
		errors.Is(err, household.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, meal.ErrNotFound),
		errors.Is(err, planner.ErrNotFound),
		errors.Is(err, household.ErrNotFound),
		errors.Is(err, images.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": ...}. Internal errors are logged and hidden.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errBadRequest, chi.URLParam(r, "id"))
	}
	return id, nil
}
