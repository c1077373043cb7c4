package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"meal-planner/internal/recipe"
)

// listRecipes answers ?slug= with a single recipe and otherwise lists,
// optionally filtered by ?tag=.
func (a *API) listRecipes(w http.ResponseWriter, r *http.Request) {
	if slug := r.URL.Query().Get("slug"); slug != "" {
		rec, err := a.Recipes.GetBySlug(r.Context(), slug)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}
	recs, err := a.Recipes.List(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []recipe.Recipe{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.Recipes.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in recipe.Recipe
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.Recipes.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Tags.Purge()
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in recipe.Recipe
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.Recipes.Update(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Tags.Purge()
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Recipes.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.Tags.Purge()
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	URL  string `json:"url"`
	Save bool   `json:"save"`
}

// importRecipe clips a web page. The draft is returned as is unless save is
// set, in which case it is stored and the stored recipe returned.
func (a *API) importRecipe(w http.ResponseWriter, r *http.Request) {
	if a.Clipper == nil {
		a.fail(w, r, fmt.Errorf("recipe import: %w", errNotConfigured))
		return
	}
	var in importRequest
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		a.fail(w, r, fmt.Errorf("%w: url must be http or https", errBadRequest))
		return
	}

	res, err := a.Clipper.ClipURL(r.Context(), in.URL)
	source := "unknown"
	if res != nil {
		source = res.Source
		if res.Usage != nil {
			a.Metrics.LLMUsage(res.Usage.Model, res.Usage.PromptTokens, res.Usage.CompletionTokens)
		}
	}
	a.Metrics.RecipeImport(source, err)
	if err != nil {
		a.Logger.Warn("recipe import failed", zap.String("url", in.URL), zap.Error(err))
		a.fail(w, r, err)
		return
	}

	if !in.Save {
		writeJSON(w, http.StatusOK, res.Recipe)
		return
	}
	rec, err := a.Recipes.Create(r.Context(), res.Recipe)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Tags.Purge()
	writeJSON(w, http.StatusCreated, rec)
}
