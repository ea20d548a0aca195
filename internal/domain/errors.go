package domain

import (
	"errors"
	"regexp"
)

// Code is the user-facing category a failure is classified into.
type Code string

const (
	CodeDefault       Code = "DEFAULT"
	CodeInvalidAPIURL Code = "INVALID_API_URL"
	CodeNotGhost      Code = "NOT_GHOST"
	CodeInvalidToken  Code = "INVALID_TOKEN"
	CodeInvalidAPIKey Code = "INVALID_API_KEY"
	CodeCORS          Code = "CORS"
	CodeNoPermission  Code = "NO_PERMISSION"
	CodeSiteOffline   Code = "SITE_OFFLINE"
	CodeMaintenance   Code = "MAINTENANCE"
	CodeDomainError   Code = "DOMAIN_ERROR"
	CodeFailedRequest Code = "FAILED_REQUEST"
	CodeNoLexical     Code = "NO_LEXICAL"
	CodeFetchFailed   Code = "FETCH_FAILED"
	CodeInvalidLink   Code = "INVALID_LINK"
	CodeNotConfigured Code = "NOT_CONFIGURED"
	CodeRateLimited   Code = "RATE_LIMITED"
)

var messages = map[Code]string{
	CodeDefault:       "An error occurred. Check your settings and try again.",
	CodeInvalidAPIURL: "Invalid URL. Ensure your Ghost URL is correct and try again.",
	CodeNotGhost:      "No Ghost site found. Ensure your URL is correct and try again.",
	CodeInvalidToken:  "Incorrect token. Check your Ghost API key and try again.",
	CodeInvalidAPIKey: "Invalid API key. Check your settings and try again.",
	CodeCORS:          "Permission not granted. Confirm the list of allowed URLs in the extension settings.",
	CodeNoPermission:  "Permission not granted. Submit your settings again to confirm permissions.",
	CodeSiteOffline:   "Your Ghost site is currently offline. Contact support@ghost.org for help.",
	CodeMaintenance:   "Your Ghost site is currently in maintenance mode. Try again later.",
	CodeDomainError:   "Your custom domain is invalid. Contact support@ghost.org for help.",
	CodeFailedRequest: "Failed to fetch. Ensure your URL is correct and try again.",
	CodeFetchFailed:   "An error occurred. Check your settings and try again.",
	CodeNoLexical:     `Unable to save. If you already have a draft post called "Bookmarked links", rename it and try again`,
	CodeInvalidLink:   "Invalid link. Only absolute http(s) URLs can be bookmarked.",
	CodeNotConfigured: "Please set your Ghost API URL and API key first.",
	CodeRateLimited:   "Too many bookmarks at once. Try again in a moment.",
}

// Message returns the canonical text for code, or the default text for
// codes without one.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[CodeDefault]
}

// Error is a classified failure. Message is safe to show to the user; Err
// keeps the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error carrying the canonical message of code.
func NewError(code Code, cause error) *Error {
	return &Error{Code: code, Message: Message(code), Err: cause}
}

// CodeOf extracts the classification of err; unclassified errors are
// CodeDefault.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeDefault
}

var (
	corsPattern          = regexp.MustCompile(`(?i)Request made from incorrect origin`)
	invalidTokenPattern  = regexp.MustCompile(`(?i)Invalid token|authorized`)
	unknownAPIKeyPattern = regexp.MustCompile(`(?i)Unknown Admin API Key`)
)

// Classify maps a raw backend message to a user-facing error. Known
// messages get their canonical category, anything else is kept verbatim
// as FETCH_FAILED. An empty message yields fallback, or the default text
// when fallback is empty too.
func Classify(raw, fallback string) *Error {
	switch {
	case raw == "" && fallback == "":
		return NewError(CodeFetchFailed, nil)
	case raw == "":
		return &Error{Code: CodeFetchFailed, Message: fallback}
	case corsPattern.MatchString(raw):
		return NewError(CodeCORS, errors.New(raw))
	case invalidTokenPattern.MatchString(raw):
		return NewError(CodeInvalidToken, errors.New(raw))
	case unknownAPIKeyPattern.MatchString(raw):
		return NewError(CodeInvalidAPIKey, errors.New(raw))
	}
	return &Error{Code: CodeFetchFailed, Message: raw}
}

var (
	offlinePattern     = regexp.MustCompile(`(?i)offline|sleep.ghost.org`)
	maintenancePattern = regexp.MustCompile(`(?i)maintenance.ghost.org`)
	domainPattern      = regexp.MustCompile(`(?i)domain.ghost.org`)
)

// ClassifyRedirect inspects the final URL of a response, after redirects.
// Ghost(Pro) answers for sleeping, maintained or misconfigured sites by
// redirecting to dedicated landing pages with a 200 status.
func ClassifyRedirect(finalURL string) (Code, bool) {
	switch {
	case offlinePattern.MatchString(finalURL):
		return CodeSiteOffline, true
	case maintenancePattern.MatchString(finalURL):
		return CodeMaintenance, true
	case domainPattern.MatchString(finalURL):
		return CodeDomainError, true
	}
	return "", false
}
