package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/render"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// readRequest accepts a JSON body, falling back to link, note and text
// query parameters for bookmarklets.
func readRequest(w http.ResponseWriter, r *http.Request) (bookmarker.Request, error) {
	var req bookmarker.Request
	if err := decodeJSON(w, r, &req); err != nil {
		return req, err
	}
	q := r.URL.Query()
	if req.Link == "" && req.Text == "" {
		req.Link = q.Get("link")
		req.Text = q.Get("text")
	}
	if req.Note == "" {
		req.Note = q.Get("note")
	}
	return req, nil
}

// SubmitBookmark saves a bookmark and answers with where it went.
func SubmitBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readRequest(w, r)
		if err != nil {
			render.Problem(w, http.StatusBadRequest, domain.CodeInvalidLink, domain.Message(domain.CodeInvalidLink))
			return
		}

		res, err := d.Bookmarks.Submit(r.Context(), req)
		if err != nil {
			d.Logger.Info("bookmark rejected",
				logger.String("code", string(domain.CodeOf(err))),
				logger.Error(err))
			render.Error(w, err)
			return
		}

		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		render.JSON(w, status, res)
	}
}

type acceptedResponse struct {
	Accepted bool `json:"accepted"`
}

// QuickBookmark queues a background submission. The outcome is delivered
// as a notification, never in the response.
func QuickBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readRequest(w, r)
		if err != nil {
			render.Problem(w, http.StatusBadRequest, domain.CodeInvalidLink, domain.Message(domain.CodeInvalidLink))
			return
		}

		// The submission outlives the request.
		ctx := context.WithoutCancel(r.Context())
		go d.Bookmarks.SubmitBackground(ctx, req)

		render.JSON(w, http.StatusAccepted, acceptedResponse{Accepted: true})
	}
}
