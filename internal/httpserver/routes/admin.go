package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/handlers"
)

func init() { Register("admin", registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(admin(d)...)

		r.Get("/api/settings", handlers.GetSettings(d))
		r.Put("/api/settings", handlers.PutSettings(d))

		r.Get("/api/permissions", handlers.ListPermissions(d))
		r.Post("/api/permissions", handlers.GrantPermission(d))
		r.Delete("/api/permissions", handlers.RevokePermission(d))
	})
}
