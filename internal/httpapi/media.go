package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"meal-planner/internal/images"
	"meal-planner/internal/tags"
)

// listTags returns every tag, or with ?q= the suggestions for an
// autocomplete input. ?chosen= is a comma list of tags already picked.
func (a *API) listTags(w http.ResponseWriter, r *http.Request) {
	all, err := a.Tags.All(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	if !q.Has("q") {
		writeJSON(w, http.StatusOK, all)
		return
	}
	var chosen []string
	if c := q.Get("chosen"); c != "" {
		chosen = strings.Split(c, ",")
	}
	writeJSON(w, http.StatusOK, tags.Suggest(all, q.Get("q"), chosen))
}

func (a *API) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.fail(w, r, images.ErrTooLarge)
			return
		}
		a.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	url, err := a.Images.Save(r.Context(), header.Filename, file)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (a *API) getImage(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := a.Images.Open(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, body)
}
