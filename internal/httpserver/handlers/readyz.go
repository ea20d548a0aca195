package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
)

const probeTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Configured bool                       `json:"configured"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether submissions can be served: settings readable and,
// when enabled, Redis answering. An unconfigured Ghost connection is
// reported but does not make the process unready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := readyzResponse{Ready: true, Components: map[string]componentStatus{}}

		redis := checkRedis(ctx, d.Redis)
		resp.Components["redis"] = redis
		if !redis.OK {
			resp.Ready = false
		}

		settings := componentStatus{OK: true}
		if s, err := d.Settings.Load(ctx); err != nil {
			settings = componentStatus{OK: false, Error: err.Error()}
			resp.Ready = false
		} else {
			resp.Configured = s.Configured()
		}
		resp.Components["settings"] = settings

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		render.JSON(w, status, resp)
	}
}

func checkRedis(ctx context.Context, p deps.Pinger) componentStatus {
	if p == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "shared", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "shared"}
}
