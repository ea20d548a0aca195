package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
)

// OpenEditor redirects to the Ghost editor of a post.
func OpenEditor(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "uuid"))
		if err != nil {
			render.Problem(w, http.StatusBadRequest, domain.CodeDefault, "Invalid post id.")
			return
		}

		s, err := d.Settings.Load(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}
		if !s.Configured() {
			render.Error(w, domain.NewError(domain.CodeNotConfigured, nil))
			return
		}

		http.Redirect(w, r, bookmarker.EditorURL(s.APIURL, id.String()), http.StatusFound)
	}
}
