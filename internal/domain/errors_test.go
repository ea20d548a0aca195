package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback string
		wantCode Code
		wantMsg  string
	}{
		{
			name:     "cors rejection",
			raw:      "Request made from incorrect origin",
			wantCode: CodeCORS,
			wantMsg:  Message(CodeCORS),
		},
		{
			name:     "invalid token any case",
			raw:      "INVALID TOKEN: jwt expired",
			wantCode: CodeInvalidToken,
			wantMsg:  Message(CodeInvalidToken),
		},
		{
			name:     "not authorized",
			raw:      "You are not authorized to perform this action",
			wantCode: CodeInvalidToken,
			wantMsg:  Message(CodeInvalidToken),
		},
		{
			name:     "unknown key",
			raw:      "Unknown Admin API Key",
			wantCode: CodeInvalidAPIKey,
			wantMsg:  Message(CodeInvalidAPIKey),
		},
		{
			name:     "unclassifiable message kept",
			raw:      "Validation error, cannot save post.",
			fallback: "Error trying to update post.",
			wantCode: CodeFetchFailed,
			wantMsg:  "Validation error, cannot save post.",
		},
		{
			name:     "empty message uses fallback",
			fallback: "Error trying to create a new post.",
			wantCode: CodeFetchFailed,
			wantMsg:  "Error trying to create a new post.",
		},
		{
			name:     "nothing at all uses default",
			wantCode: CodeFetchFailed,
			wantMsg:  Message(CodeDefault),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw, tt.fallback)
			if got.Code != tt.wantCode {
				t.Errorf("Classify() code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Classify() message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestClassifyRedirect(t *testing.T) {
	tests := []struct {
		url    string
		want   Code
		wantOK bool
	}{
		{"https://sleep.ghost.org/?site=foo", CodeSiteOffline, true},
		{"https://offline.ghost.org/", CodeSiteOffline, true},
		{"https://maintenance.ghost.org/", CodeMaintenance, true},
		{"https://DOMAIN.ghost.org/error", CodeDomainError, true},
		{"https://blog.example.com/ghost/api/admin/posts/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ClassifyRedirect(tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ClassifyRedirect(%q) = (%s, %v), want (%s, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("create post: %w", NewError(CodeNoLexical, nil))
	if got := CodeOf(wrapped); got != CodeNoLexical {
		t.Errorf("CodeOf(wrapped) = %s, want %s", got, CodeNoLexical)
	}
	if got := CodeOf(errors.New("boom")); got != CodeDefault {
		t.Errorf("CodeOf(foreign) = %s, want %s", got, CodeDefault)
	}
}

func TestMessageUnknownCode(t *testing.T) {
	if got := Message(Code("NOPE")); got != Message(CodeDefault) {
		t.Errorf("Message(unknown) = %q, want default", got)
	}
}
