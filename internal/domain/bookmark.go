package domain

import (
	"net/url"
	"strings"
	"time"
)

// AggregatorTitle is the title of the single draft post every bookmark is
// appended to.
const AggregatorTitle = "Bookmarked links"

// Credentials is a Ghost Admin API key split into its two halves.
type Credentials struct {
	// ID is the key id, sent as the JWT "kid" header.
	ID string
	// Secret is the hex-encoded signing secret.
	Secret string
}

// ParseCredentials splits a stored "id:secret" key. It fails with
// INVALID_API_KEY unless there is exactly one separator and both halves are
// non-empty.
func ParseCredentials(apiKey string) (Credentials, error) {
	if strings.Count(apiKey, ":") != 1 {
		return Credentials{}, NewError(CodeInvalidAPIKey, nil)
	}
	id, secret, _ := strings.Cut(apiKey, ":")
	if id == "" || secret == "" {
		return Credentials{}, NewError(CodeInvalidAPIKey, nil)
	}
	return Credentials{ID: id, Secret: secret}, nil
}

// BookmarkRequest is one submission: the page to bookmark and an optional
// note, usually the text selected on that page.
type BookmarkRequest struct {
	Link string
	Note string
}

// Validate rejects links that are not absolute http(s) URLs. It runs before
// anything is sent.
func (r BookmarkRequest) Validate() error {
	u, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewError(CodeInvalidLink, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewError(CodeInvalidLink, nil)
	}
	return nil
}

// Hostname is used in success notifications ("Link saved from ...").
func (r BookmarkRequest) Hostname() string {
	u, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// NotificationKind separates success and failure notifications.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is what a background submission delivers to the display
// surface instead of returning it to a caller.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Code      Code             `json:"code,omitempty"`
	PostUUID  string           `json:"post_uuid,omitempty"`
	EditorURL string           `json:"editor_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
