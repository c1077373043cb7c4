package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/auth"
	"meal-planner/internal/household"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "mealplan_session"

type ctxKey int

const (
	principalKey ctxKey = iota
	householdKey
)

func principalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey).(*auth.Principal)
	return p
}

func householdFrom(ctx context.Context) *household.Household {
	h, _ := ctx.Value(householdKey).(*household.Household)
	return h
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// authenticate resolves the caller and their household. A user without a
// household gets one on first use.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Auth.Authenticate(r.Context(), tokenFrom(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		h, err := a.Households.Ensure(r.Context(), p.UserID, p.Email, p.Name)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		ctx = context.WithValue(ctx, householdKey, h)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(w, r, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.Auth.Register(r.Context(), c.Email, c.Name, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(w, r, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	token, u, err := a.Auth.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	h, err := a.Households.Ensure(r.Context(), u.ID, u.Email, u.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.Auth.TTL()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u, "household": h})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := a.Auth.Logout(r.Context(), p); err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info("user logged out", zap.Int64("user_id", p.UserID))
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      auth.User{ID: p.UserID, Email: p.Email, Name: p.Name},
		"household": householdFrom(r.Context()),
	})
}
