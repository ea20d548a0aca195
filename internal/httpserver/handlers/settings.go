package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

type settingsResponse struct {
	domain.Settings
	Configured bool `json:"configured"`
}

// GetSettings returns the stored connection with the key masked.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Settings.Current(r.Context())
		if err != nil {
			d.Logger.Error("failed to load settings", logger.Error(err))
			render.Error(w, err)
			return
		}
		render.JSON(w, http.StatusOK, settingsResponse{Settings: s, Configured: s.Configured()})
	}
}

// PutSettings validates the site and key against Ghost and stores them.
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body domain.Settings
		if err := decodeJSON(w, r, &body); err != nil {
			render.Problem(w, http.StatusBadRequest, domain.CodeInvalidAPIURL, domain.Message(domain.CodeInvalidAPIURL))
			return
		}

		saved, err := d.Settings.Save(r.Context(), body.APIURL, body.APIKey)
		if err != nil {
			d.Logger.Info("settings rejected",
				logger.String("code", string(domain.CodeOf(err))),
				logger.Error(err))
			render.Error(w, err)
			return
		}

		masked := saved.Masked()
		render.JSON(w, http.StatusOK, settingsResponse{Settings: masked, Configured: true})
	}
}
