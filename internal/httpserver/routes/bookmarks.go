package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	// One bucket per client shared by both submission routes.
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10_000,
		TrustProxy:        d.TrustProxy,
	}))
	limited.Post("/api/bookmarks", handlers.SubmitBookmark(d))
	limited.Post("/api/bookmarks/quick", handlers.QuickBookmark(d))

	r.Get("/api/posts/{uuid}/edit", handlers.OpenEditor(d))
}
