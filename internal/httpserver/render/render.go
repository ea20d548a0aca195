// Package render writes JSON responses and maps classified failures to
// HTTP status codes.
package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
}

// JSON writes v with status. Encoding errors are dropped; the header is
// already sent by then.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Problem writes an error body with an explicit status.
func Problem(w http.ResponseWriter, status int, code domain.Code, message string) {
	JSON(w, status, ErrorBody{Code: code, Message: message})
}

// Error writes err classified. Unclassified errors are reported with the
// default message so internals never reach the client.
func Error(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	msg := domain.Message(code)
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	Problem(w, StatusOf(code), code, msg)
}

// StatusOf maps a failure code to the HTTP status it is served with.
func StatusOf(code domain.Code) int {
	switch code {
	case domain.CodeInvalidLink, domain.CodeInvalidAPIURL:
		return http.StatusBadRequest
	case domain.CodeNotConfigured:
		return http.StatusPreconditionFailed
	case domain.CodeNoPermission, domain.CodeCORS:
		return http.StatusForbidden
	case domain.CodeInvalidAPIKey, domain.CodeInvalidToken:
		return http.StatusUnauthorized
	case domain.CodeNoLexical:
		return http.StatusConflict
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	case domain.CodeSiteOffline, domain.CodeMaintenance, domain.CodeDomainError,
		domain.CodeFailedRequest, domain.CodeNotGhost:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
