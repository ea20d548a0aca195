package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/handlers"
)

func init() { Register("notifications", registerNotifications) }

func registerNotifications(r chi.Router, d deps.Deps) {
	r.Get("/api/notifications", handlers.ListNotifications(d))
	r.Get("/api/notifications/{id}", handlers.GetNotification(d))
	r.With(admin(d)...).Post("/api/notifications/prune", handlers.PruneNotifications(d))
}
