package bookmarker

import (
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

var webURL = xurls.Strict()

// Request is one submission. Text is free shared text (a share-sheet
// payload, a chat message); it is only used when Link is empty.
type Request struct {
	Link string `json:"link"`
	Note string `json:"note"`
	Text string `json:"text"`
}

// bookmark resolves the request into the link and note that are saved.
// With only Text, the first http(s) URL in it becomes the link and the
// remaining text becomes the note unless a note was given.
func (r Request) bookmark() domain.BookmarkRequest {
	link := strings.TrimSpace(r.Link)
	note := strings.TrimSpace(r.Note)
	if link != "" || r.Text == "" {
		return domain.BookmarkRequest{Link: link, Note: note}
	}

	found, rest := extractLink(r.Text)
	if note == "" {
		note = rest
	}
	return domain.BookmarkRequest{Link: found, Note: note}
}

// extractLink returns the first web URL in text and the text without it.
func extractLink(text string) (link, rest string) {
	for _, loc := range webURL.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		lower := strings.ToLower(candidate)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		rest = strings.Join(strings.Fields(text[:loc[0]]+" "+text[loc[1]:]), " ")
		return candidate, rest
	}
	return "", strings.TrimSpace(text)
}
