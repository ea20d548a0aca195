package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []entry

// Register a named registrar with optional middlewares applied to every
// route it adds. Called from init() in each route file.
func Register(name string, reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{name: name, reg: reg, mws: mws})
}

// RegisterAll mounts every registered group. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
		} else {
			e.reg(r.With(e.mws...), d)
		}
		d.Logger.Debug("routes registered", logger.String("group", e.name))
	}
}

// LoopbackCIDRS is what the admin group accepts when no CIDRs are set.
var LoopbackCIDRS = []string{"127.0.0.1/32", "::1/128"}

// admin guards routes that change or reveal the Ghost connection. Without
// an explicit allow list only loopback clients get through.
func admin(d deps.Deps) []Middleware {
	cidrs := d.AllowedCIDRS
	if len(cidrs) == 0 {
		cidrs = LoopbackCIDRS
	}
	return []Middleware{
		mw.AllowOnlyCIDRS(cidrs, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	}
}
