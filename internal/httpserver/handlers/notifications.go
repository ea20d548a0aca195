package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

const defaultNotificationLimit = 20

type notificationsResponse struct {
	Source        string                `json:"source"`
	Notifications []domain.Notification `json:"notifications"`
}

// ListNotifications serves background outcomes, newest first. Query
// parameters: since (RFC 3339), limit, source=shared to read the Redis
// feed instead of this instance's inbox.
func ListNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := defaultNotificationLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				render.Problem(w, http.StatusBadRequest, domain.CodeDefault, "limit must be a positive integer")
				return
			}
			limit = n
		}

		var since time.Time
		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				render.Problem(w, http.StatusBadRequest, domain.CodeDefault, "since must be an RFC 3339 timestamp")
				return
			}
			since = t
		}

		if q.Get("source") == "shared" && d.Recent != nil {
			items, err := d.Recent.Recent(r.Context(), limit)
			if err != nil {
				d.Logger.Warn("failed to read shared notifications", logger.Error(err))
				render.Problem(w, http.StatusServiceUnavailable, domain.CodeDefault, "Shared notifications are unavailable.")
				return
			}
			render.JSON(w, http.StatusOK, notificationsResponse{Source: "shared", Notifications: filterSince(items, since)})
			return
		}

		render.JSON(w, http.StatusOK, notificationsResponse{Source: "inbox", Notifications: d.Inbox.List(since, limit)})
	}
}

func filterSince(items []domain.Notification, since time.Time) []domain.Notification {
	if since.IsZero() {
		return items
	}
	out := items[:0]
	for _, n := range items {
		if n.CreatedAt.After(since) {
			out = append(out, n)
		}
	}
	return out
}

// GetNotification serves one notification of the inbox.
func GetNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := d.Inbox.Get(chi.URLParam(r, "id"))
		if !ok {
			render.Problem(w, http.StatusNotFound, domain.CodeDefault, "Notification not found.")
			return
		}
		render.JSON(w, http.StatusOK, n)
	}
}

// PruneNotifications asks the pruner for an immediate pass.
func PruneNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.PruneTrigger == nil {
			render.Problem(w, http.StatusServiceUnavailable, domain.CodeDefault, "Pruning is disabled.")
			return
		}
		if !d.PruneTrigger() {
			render.Problem(w, http.StatusTooManyRequests, domain.CodeDefault, "Prune already pending.")
			return
		}
		d.Logger.Info("manual prune triggered", logger.String("remote_ip", r.RemoteAddr))
		render.JSON(w, http.StatusAccepted, acceptedResponse{Accepted: true})
	}
}
