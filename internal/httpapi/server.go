// Package httpapi serves the meal planner's JSON API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"meal-planner/internal/auth"
	"meal-planner/internal/clipper"
	"meal-planner/internal/household"
	"meal-planner/internal/images"
	"meal-planner/internal/meal"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
	"meal-planner/internal/tags"
)

// Clipper imports recipes from web pages.
type Clipper interface {
	ClipURL(ctx context.Context, url string) (*clipper.Result, error)
}

// Sharer sends a shopping list to a chat.
type Sharer interface {
	Share(ctx context.Context, chatID int64, list shopping.List) error
}

// HealthFunc reports the service's health for /health.
type HealthFunc func(ctx context.Context) (metrics.SysHealth, error)

// Deps are the collaborators of the API. Clipper and Sharer may be nil, in
// which case their endpoints answer 501.
type Deps struct {
	Auth        *auth.Service
	Households  *household.Repository
	Recipes     *recipe.Repository
	Meals       *meal.Repository
	Plans       *planner.PlanRepository
	Pantries    *pantry.Repository
	Shopping    *shopping.Service
	Tags        *tags.Cache
	Images      *images.Uploader
	Clipper     Clipper
	Sharer      Sharer
	Metrics     *metrics.Metrics
	Health      HealthFunc
	Logger      *zap.Logger
	CORSOrigins []string
}

// API holds the handlers.
type API struct {
	Deps
	today func() planner.Date
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return &API{Deps: d, today: planner.Today}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.observe)
	r.Use(middleware.Recoverer)

	origins := a.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", a.health)
	r.Handle("/metrics", a.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.register)
		api.Post("/auth/login", a.login)
		api.Get("/images/{key}", a.getImage)

		api.Group(func(p chi.Router) {
			p.Use(a.authenticate)

			p.Post("/auth/logout", a.logout)
			p.Get("/auth/me", a.me)

			p.Route("/recipes", func(rr chi.Router) {
				rr.Get("/", a.listRecipes)
				rr.Post("/", a.createRecipe)
				rr.Post("/import", a.importRecipe)
				rr.Route("/{id}", func(one chi.Router) {
					one.Get("/", a.getRecipe)
					one.Put("/", a.updateRecipe)
					one.Delete("/", a.deleteRecipe)
				})
			})

			p.Route("/meals", func(mr chi.Router) {
				mr.Get("/", a.listMeals)
				mr.Post("/", a.createMeal)
				mr.Route("/{id}", func(one chi.Router) {
					one.Get("/", a.getMeal)
					one.Put("/", a.updateMeal)
					one.Delete("/", a.deleteMeal)
				})
			})

			p.Route("/plans", func(pr chi.Router) {
				pr.Get("/", a.listPlans)
				pr.Post("/", a.createPlan)
				pr.Route("/{id}", func(one chi.Router) {
					one.Get("/", a.getPlan)
					one.Put("/", a.updatePlan)
					one.Delete("/", a.deletePlan)
					one.Get("/ingredients", a.planIngredients)
					one.Get("/shopping-list", a.getShoppingList)
					one.Put("/shopping-list", a.updateShoppingList)
					one.Get("/shopping-list.xlsx", a.exportShoppingList)
					one.Post("/shopping-list/share", a.shareShoppingList)
				})
			})

			p.Get("/shopping-list", a.nextShoppingList)
			p.Put("/shopping-list", a.updateShoppingList)

			p.Get("/pantry", a.getPantry)
			p.Put("/pantry", a.replacePantry)
			p.Delete("/pantry", a.clearPantry)

			p.Route("/household", func(hr chi.Router) {
				hr.Get("/", a.getHousehold)
				hr.Get("/members", a.listMembers)
				hr.Post("/join-code", a.createJoinCode)
				hr.Post("/join", a.joinHousehold)
				hr.Post("/leave", a.leaveHousehold)
				hr.Post("/remove-member", a.removeMember)
			})

			p.Get("/tags", a.listTags)
			p.Post("/images", a.uploadImage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "404 - Not Found"})
	})
	return r
}

// observe logs each request and records it in the metrics registry under
// its route pattern.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		a.Metrics.ObserveRequest(route, r.Method, status, elapsed)
		a.Logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if a.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h, err := a.Health(r.Context())
	if err != nil {
		a.Logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		metrics.SysHealth
	}{"ok", h})
}
