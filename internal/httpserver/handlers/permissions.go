package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
	"github.com/MrSnakeDoc/ghostmark/internal/permission"
)

type permissionsResponse struct {
	Static  []string `json:"static"`
	Granted []string `json:"granted"`
}

type patternBody struct {
	Pattern string `json:"pattern"`
}

// ListPermissions returns configured and granted host patterns.
func ListPermissions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		static, granted, err := d.Permissions.List(r.Context())
		if err != nil {
			d.Logger.Error("failed to list permissions", logger.Error(err))
			render.Error(w, err)
			return
		}
		if granted == nil {
			granted = []string{}
		}
		render.JSON(w, http.StatusOK, permissionsResponse{Static: static, Granted: granted})
	}
}

// GrantPermission grants {"pattern": "https://host/*"}.
func GrantPermission(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body patternBody
		if err := decodeJSON(w, r, &body); err != nil || body.Pattern == "" {
			render.Problem(w, http.StatusBadRequest, domain.CodeNoPermission, "A pattern like https://example.com/* is required.")
			return
		}
		if err := d.Permissions.Grant(r.Context(), body.Pattern); err != nil {
			if errors.Is(err, permission.ErrInvalidPattern) {
				render.Problem(w, http.StatusBadRequest, domain.CodeNoPermission, err.Error())
				return
			}
			d.Logger.Error("failed to grant permission", logger.Error(err))
			render.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RevokePermission revokes the pattern given as the pattern query
// parameter.
func RevokePermission(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pattern := r.URL.Query().Get("pattern")
		if pattern == "" {
			render.Problem(w, http.StatusBadRequest, domain.CodeNoPermission, "pattern query parameter is required")
			return
		}
		if err := d.Permissions.Revoke(r.Context(), pattern); err != nil {
			d.Logger.Error("failed to revoke permission", logger.Error(err))
			render.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
