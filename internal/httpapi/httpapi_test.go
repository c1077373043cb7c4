package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"meal-planner/internal/auth"
	"meal-planner/internal/clipper"
	"meal-planner/internal/database/dbtest"
	"meal-planner/internal/export"
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

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSharer struct {
	mu     sync.Mutex
	chats  []int64
	shared []shopping.List
}

func (f *fakeSharer) Share(ctx context.Context, chatID int64, list shopping.List) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
	f.shared = append(f.shared, list)
	return nil
}

type fakeClipper struct {
	result *clipper.Result
	err    error
}

func (f *fakeClipper) ClipURL(ctx context.Context, url string) (*clipper.Result, error) {
	return f.result, f.err
}

type env struct {
	t       *testing.T
	handler http.Handler
	api     *API
	sharer  *fakeSharer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)

	store, err := images.NewFSStore(t.TempDir())
	require.NoError(t, err)

	plans := planner.NewPlanRepository(db)
	pantries := pantry.NewRepository(db)
	sharer := &fakeSharer{}
	api := New(Deps{
		Auth: auth.NewService(auth.NewUserRepository(db), auth.NewSessionRepository(db),
			auth.NewTokenIssuer("test-secret"), time.Hour, nil),
		Households: household.NewRepository(db, time.Hour),
		Recipes:    recipe.NewRepository(db),
		Meals:      meal.NewRepository(db),
		Plans:      plans,
		Pantries:   pantries,
		Shopping:   shopping.NewService(plans, pantries, shopping.NewRepository(db), nil),
		// ttl 0 keeps the cache from starting its expiry goroutine.
		Tags:    tags.NewCache(tags.NewRepository(db), 0),
		Images:  images.NewUploader(store, ""),
		Sharer:  sharer,
		Metrics: metrics.New(),
	})
	return &env{t: t, handler: api.Routes(), api: api, sharer: sharer}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// user registers and logs in, returning the session token.
func (e *env) user(email, name string) string {
	e.t.Helper()
	rec := e.do("POST", "/api/auth/register", "", credentials{Email: email, Name: name, Password: "correct horse"})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do("POST", "/api/auth/login", "", credentials{Email: email, Password: "correct horse"})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decodeBody(e.t, rec, &out)
	return out.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	return body.Error
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	t.Run("Unauthenticated", func(t *testing.T) {
		rec := e.do("GET", "/api/recipes", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "not authenticated", errorOf(t, rec))
	})

	token := e.user("ann@example.com", "Ann")

	t.Run("WrongPassword", func(t *testing.T) {
		rec := e.do("POST", "/api/auth/login", "", credentials{Email: "ann@example.com", Password: "nope nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		rec := e.do("POST", "/api/auth/register", "", credentials{Email: "ANN@example.com", Name: "Ann", Password: "another pass"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MeWithBearer", func(t *testing.T) {
		rec := e.do("GET", "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			User      auth.User           `json:"user"`
			Household household.Household `json:"household"`
		}
		decodeBody(t, rec, &out)
		assert.Equal(t, "ann@example.com", out.User.Email)
		assert.Equal(t, "Ann Household", out.Household.Name)
	})

	t.Run("MeWithCookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("LoginSetsCookie", func(t *testing.T) {
		rec := e.do("POST", "/api/auth/login", "", credentials{Email: "ann@example.com", Password: "correct horse"})
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("Logout", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, e.do("POST", "/api/auth/logout", token, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, e.do("GET", "/api/auth/me", token, nil).Code)
	})
}

func TestRecipesAndTags(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")

	rec := e.do("POST", "/api/recipes", token, recipe.Recipe{
		Name: "Pancakes", Description: "Fluffy",
		Steps: []recipe.Step{{Text: "Mix"}, {Text: "Fry"}},
		Tags:  []string{"Breakfast"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created recipe.Recipe
	decodeBody(t, rec, &created)
	assert.Equal(t, "pancakes", created.Slug)

	rec = e.do("GET", "/api/tags", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["breakfast"]`, rec.Body.String())

	t.Run("WritesPurgeTagCache", func(t *testing.T) {
		in := created
		in.Tags = append(in.Tags, "brunch")
		rec := e.do("PUT", fmt.Sprintf("/api/recipes/%d", created.ID), token, in)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = e.do("GET", "/api/tags", token, nil)
		assert.JSONEq(t, `["breakfast","brunch"]`, rec.Body.String())
	})

	t.Run("Suggest", func(t *testing.T) {
		rec := e.do("GET", "/api/tags?q=BR&chosen=brunch", token, nil)
		assert.JSONEq(t, `["breakfast"]`, rec.Body.String())
	})

	t.Run("BySlugAndTag", func(t *testing.T) {
		rec := e.do("GET", "/api/recipes?slug=pancakes", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = e.do("GET", "/api/recipes?tag=dinner", token, nil)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Errors", func(t *testing.T) {
		rec := e.do("POST", "/api/recipes", token, recipe.Recipe{Name: "No description"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorOf(t, rec), "description is required")

		assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/recipes/999", token, nil).Code)
		assert.Equal(t, http.StatusBadRequest, e.do("GET", "/api/recipes/abc", token, nil).Code)
	})

	t.Run("Delete", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d", created.ID)
		assert.Equal(t, http.StatusNoContent, e.do("DELETE", path, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, e.do("GET", path, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, e.do("DELETE", path, token, nil).Code)
	})
}

func TestImportRecipe(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")

	rec := e.do("POST", "/api/recipes/import", token, importRequest{URL: "https://example.com/soup"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	e.api.Clipper = &fakeClipper{result: &clipper.Result{
		Source: clipper.SourceJSONLD,
		Recipe: recipe.Recipe{Name: "Soup", Description: "Warm", Tags: []string{"dinner"}},
	}}

	rec = e.do("POST", "/api/recipes/import", token, importRequest{URL: "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do("POST", "/api/recipes/import", token, importRequest{URL: "https://example.com/soup"})
	require.Equal(t, http.StatusOK, rec.Code)
	var draft recipe.Recipe
	decodeBody(t, rec, &draft)
	assert.Zero(t, draft.ID)

	rec = e.do("POST", "/api/recipes/import", token, importRequest{URL: "https://example.com/soup", Save: true})
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved recipe.Recipe
	decodeBody(t, rec, &saved)
	assert.NotZero(t, saved.ID)
	assert.JSONEq(t, `["dinner"]`, e.do("GET", "/api/tags", token, nil).Body.String())

	e.api.Clipper = &fakeClipper{err: clipper.ErrNoRecipe}
	rec = e.do("POST", "/api/recipes/import", token, importRequest{URL: "https://example.com/blog"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// seedPlan creates two meals sharing an ingredient and a plan holding both.
func seedPlan(t *testing.T, e *env, token string) planner.Plan {
	t.Helper()
	var ids []int64
	for _, m := range []meal.Meal{
		{Name: "Omelette", Description: "Eggs", Ingredients: []meal.Ingredient{
			{Name: "eggs", Amount: "2"}, {Name: "sea salt", Amount: "1 tsp"}, {Name: "milk", Amount: "1L"}}},
		{Name: "Frittata", Description: "More eggs", Ingredients: []meal.Ingredient{
			{Name: "eggs", Amount: "2"}, {Name: "spinach", Amount: "1 bag"}}},
	} {
		rec := e.do("POST", "/api/meals", token, m)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got meal.Meal
		decodeBody(t, rec, &got)
		ids = append(ids, got.ID)
	}

	start := planner.DateOf(time.Now().AddDate(0, 0, 1))
	end := planner.DateOf(time.Now().AddDate(0, 0, 7))
	rec := e.do("POST", "/api/plans", token, planner.Plan{
		StartDate: start, EndDate: end,
		Meals: []planner.MealRef{{ID: ids[0]}, {ID: ids[1]}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p planner.Plan
	decodeBody(t, rec, &p)
	return p
}

func TestPlans(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")
	p := seedPlan(t, e, token)

	assert.Len(t, p.Meals, 2)
	assert.NotZero(t, p.HouseholdID)

	rec := e.do("GET", "/api/plans?next=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var next planner.Plan
	decodeBody(t, rec, &next)
	assert.Equal(t, p.ID, next.ID)

	past := planner.DateOf(time.Now().AddDate(0, 0, -3))
	rec = e.do("POST", "/api/plans", token, planner.Plan{StartDate: past, EndDate: p.EndDate})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := e.user("other@example.com", "Other")
	assert.Equal(t, http.StatusForbidden, e.do("GET", fmt.Sprintf("/api/plans/%d", p.ID), other, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do("DELETE", fmt.Sprintf("/api/plans/%d", p.ID), other, nil).Code)
	assert.JSONEq(t, `[]`, e.do("GET", "/api/plans", other, nil).Body.String())

	t.Run("Update", func(t *testing.T) {
		started, err := e.api.Plans.Create(context.Background(), planner.Plan{
			HouseholdID: p.HouseholdID,
			StartDate:   planner.DateOf(time.Now().AddDate(0, 0, -1)),
			EndDate:     planner.DateOf(time.Now().AddDate(0, 0, 5)),
		})
		require.NoError(t, err)
		path := fmt.Sprintf("/api/plans/%d", started.ID)

		rec := e.do("GET", path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"meals":[]`)

		rec = e.do("PUT", path, token, map[string]any{"meals": []map[string]int64{{"id": p.Meals[1].ID}}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got planner.Plan
		decodeBody(t, rec, &got)
		assert.Equal(t, started.StartDate.String(), got.StartDate.String())
		assert.Equal(t, started.EndDate.String(), got.EndDate.String())
		require.Len(t, got.Meals, 1)
		assert.Equal(t, p.Meals[1].ID, got.Meals[0].ID)

		rec = e.do("PUT", path, token, planner.Plan{
			StartDate: started.StartDate, EndDate: started.EndDate,
			Meals: []planner.MealRef{{ID: p.Meals[0].ID}, {ID: p.Meals[1].ID}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeBody(t, rec, &got)
		assert.Len(t, got.Meals, 2)

		rec = e.do("PUT", path, token, planner.Plan{StartDate: started.EndDate, EndDate: started.StartDate})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		assert.Equal(t, http.StatusForbidden, e.do("PUT", path, other, planner.Plan{}).Code)
		require.Equal(t, http.StatusNoContent, e.do("DELETE", path, token, nil).Code)
	})

	assert.Equal(t, http.StatusNoContent, e.do("DELETE", fmt.Sprintf("/api/plans/%d", p.ID), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/plans?next=1", token, nil).Code)
}

func TestPlanIngredients(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")
	p := seedPlan(t, e, token)

	rec := e.do("GET", fmt.Sprintf("/api/plans/%d/ingredients", p.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []planner.Ingredient
	decodeBody(t, rec, &got)
	// Rows come back as stored: eggs twice and the pantry-covered salt kept.
	assert.Equal(t, []planner.Ingredient{
		{Name: "eggs", Amount: "2"},
		{Name: "sea salt", Amount: "1 tsp"},
		{Name: "milk", Amount: "1L"},
		{Name: "eggs", Amount: "2"},
		{Name: "spinach", Amount: "1 bag"},
	}, got)

	other := e.user("other@example.com", "Other")
	assert.Equal(t, http.StatusForbidden,
		e.do("GET", fmt.Sprintf("/api/plans/%d/ingredients", p.ID), other, nil).Code)
}

func TestShoppingList(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")
	p := seedPlan(t, e, token)
	path := fmt.Sprintf("/api/plans/%d/shopping-list", p.ID)

	rec := e.do("GET", path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list shopping.List
	decodeBody(t, rec, &list)
	assert.Equal(t, p.ID, list.Plan.ID)
	// Duplicate eggs merge; "sea salt" is covered by the default pantry.
	assert.Equal(t, []shopping.Entry{
		{Name: "eggs", Amount: "2"},
		{Name: "milk", Amount: "1L"},
		{Name: "spinach", Amount: "1 bag"},
	}, list.Ingredients)

	t.Run("Update", func(t *testing.T) {
		list.Ingredients[1].Checked = true
		rec := e.do("PUT", path, token, shopping.List{Plan: planner.Plan{ID: p.ID}, Ingredients: list.Ingredients})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got shopping.List
		decodeBody(t, rec, &got)
		assert.True(t, got.Ingredients[1].Checked)
		assert.False(t, got.Ingredients[0].Checked)

		rec = e.do("GET", "/api/shopping-list", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &got)
		assert.True(t, got.Ingredients[1].Checked)
	})

	t.Run("UpdateWithPlanInBody", func(t *testing.T) {
		rec := e.do("PUT", "/api/shopping-list", token, shopping.List{Plan: planner.Plan{ID: p.ID}, Ingredients: list.Ingredients})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = e.do("PUT", "/api/shopping-list", token, shopping.List{Ingredients: list.Ingredients})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, shopping.ErrMissingPlanContext.Error(), errorOf(t, rec))
	})

	t.Run("PlanMismatch", func(t *testing.T) {
		rec := e.do("PUT", path, token, shopping.List{Plan: planner.Plan{ID: p.ID + 1}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OtherHousehold", func(t *testing.T) {
		other := e.user("other@example.com", "Other")
		assert.Equal(t, http.StatusForbidden, e.do("GET", path, other, nil).Code)
		assert.Equal(t, http.StatusForbidden, e.do("PUT", path, other, shopping.List{}).Code)
	})

	t.Run("PantryFilters", func(t *testing.T) {
		rec := e.do("PUT", "/api/pantry", token, pantry.Pantry{Items: []string{"Spinach"}})
		require.Equal(t, http.StatusOK, rec.Code)
		var got shopping.List
		decodeBody(t, e.do("GET", path, token, nil), &got)
		assert.Len(t, got.Ingredients, 3, "sea salt is back, spinach is gone")
		assert.Equal(t, "sea salt", got.Ingredients[1].Name)
	})

	t.Run("Export", func(t *testing.T) {
		rec := e.do("GET", path+".xlsx", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "shopping-list-")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})

	t.Run("Share", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, e.do("POST", path+"/share", token, shareRequest{}).Code)
		rec := e.do("POST", path+"/share", token, shareRequest{ChatID: 42})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		require.Len(t, e.sharer.chats, 1)
		assert.Equal(t, int64(42), e.sharer.chats[0])
		assert.Equal(t, p.ID, e.sharer.shared[0].Plan.ID)
	})

	t.Run("MetricsCountWrites", func(t *testing.T) {
		rec := e.do("GET", "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `mealplan_shopping_list_writes_total{result="ok"}`)
		assert.Contains(t, rec.Body.String(), `route="/api/plans/{id}/shopping-list"`)
	})
}

func TestHousehold(t *testing.T) {
	e := newEnv(t)
	ann := e.user("ann@example.com", "Ann")
	bob := e.user("bob@example.com", "Bob")

	rec := e.do("POST", "/api/household/join-code", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var code household.JoinCode
	decodeBody(t, rec, &code)
	assert.Len(t, code.Code, 8)

	assert.Equal(t, http.StatusBadRequest, e.do("POST", "/api/household/join", bob, map[string]string{"code": "NOPE1234"}).Code)

	rec = e.do("POST", "/api/household/join", bob, map[string]string{"code": strings.ToLower(code.Code)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var h household.Household
	decodeBody(t, rec, &h)
	assert.Equal(t, "Ann Household", h.Name)
	assert.Len(t, h.Members, 2)

	var me struct {
		User auth.User `json:"user"`
	}
	decodeBody(t, e.do("GET", "/api/auth/me", bob, nil), &me)

	rec = e.do("POST", "/api/household/remove-member", bob, map[string]int64{"user_id": me.User.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do("POST", "/api/household/remove-member", ann, map[string]int64{"user_id": me.User.ID})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var members []household.Member
	decodeBody(t, e.do("GET", "/api/household/members", ann, nil), &members)
	assert.Len(t, members, 1)

	decodeBody(t, e.do("GET", "/api/household", bob, nil), &h)
	assert.Equal(t, "Bob Household", h.Name)
}

func TestImages(t *testing.T) {
	e := newEnv(t)
	token := e.user("cook@example.com", "Cook")

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		fw.Write(content)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/api/images", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	rec := upload("photo.png", png)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out map[string]string
	decodeBody(t, rec, &out)
	require.True(t, strings.HasPrefix(out["url"], "/api/images/"))
	assert.True(t, strings.HasSuffix(out["url"], "photo.png"))

	rec = e.do("GET", out["url"], "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	assert.Equal(t, http.StatusBadRequest, upload("notes.txt", []byte("hello")).Code)
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/api/images/missing.png", "", nil).Code)
}

func TestHealthAndNotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	e.api.Health = func(ctx context.Context) (metrics.SysHealth, error) {
		return metrics.SysHealth{Goroutines: 3, DatabaseSize: "1 KB"}, nil
	}
	rec = e.do("GET", "/health", "", nil)
	assert.Contains(t, rec.Body.String(), `"database_size":"1 KB"`)

	rec = e.do("GET", "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "404 - Not Found", errorOf(t, rec))
}
