package lexical

import (
	"bytes"
	"encoding/json"
	"testing"
)

func decodeNode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var n map[string]any
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("decode node: %v", err)
	}
	return n
}

func linkURL(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	n := decodeNode(t, raw)
	children := n["children"].([]any)
	if len(children) != 1 {
		t.Fatalf("link paragraph has %d children, want 1", len(children))
	}
	anchor := children[0].(map[string]any)
	if anchor["type"] != "link" {
		t.Fatalf("paragraph child type = %v, want link", anchor["type"])
	}
	return anchor["url"].(string)
}

func TestBuildNewPostLinkOnly(t *testing.T) {
	doc := BuildNewPost("https://a.com", "", nil)

	if doc.Len() != 1 {
		t.Fatalf("BuildNewPost() has %d nodes, want 1", doc.Len())
	}
	if got := linkURL(t, doc.Root.Children[0]); got != "https://a.com" {
		t.Errorf("link url = %q, want https://a.com", got)
	}
}

func TestBuildNewPostWithNote(t *testing.T) {
	doc := BuildNewPost("https://a.com", "hi", nil)

	if doc.Len() != 2 {
		t.Fatalf("BuildNewPost() has %d nodes, want 2", doc.Len())
	}
	note := decodeNode(t, doc.Root.Children[1])
	text := note["children"].([]any)[0].(map[string]any)
	if text["text"] != "hi" || text["type"] != "text" {
		t.Errorf("note node = %v, want text node with \"hi\"", note)
	}
}

func TestBuildNewPostRootShape(t *testing.T) {
	var out map[string]map[string]any
	if err := json.Unmarshal([]byte(BuildNewPost("https://a.com", "", nil).String()), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	root := out["root"]
	if root["type"] != "root" {
		t.Errorf("root type = %v, want root", root["type"])
	}
	if root["direction"] != nil {
		t.Errorf("root direction = %v, want null", root["direction"])
	}
	if root["version"] != float64(1) {
		t.Errorf("root version = %v, want 1", root["version"])
	}
}

func TestNodeChoice(t *testing.T) {
	tests := []struct {
		name     string
		preview  *Preview
		wantType string
	}{
		{"no preview", nil, "paragraph"},
		{"preview without metadata", &Preview{Type: "bookmark"}, "paragraph"},
		{"preview with empty metadata", &Preview{Metadata: &PreviewMetadata{}}, "paragraph"},
		{"preview with title", &Preview{Metadata: &PreviewMetadata{Title: "T"}}, "bookmark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildNewPost("https://a.com", "", tt.preview)
			if doc.Len() != 1 {
				t.Fatalf("got %d nodes, want exactly 1", doc.Len())
			}
			if got := doc.NodeType(0); got != tt.wantType {
				t.Errorf("node type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestBookmarkCardFields(t *testing.T) {
	preview := &Preview{Metadata: &PreviewMetadata{
		URL:         "https://www.newyorker.com/magazine/duolingo",
		Title:       "T",
		Description: "D",
		Author:      "A",
		Publisher:   "P",
		Thumbnail:   "https://img/thumb.jpg",
		Icon:        "https://img/favicon.ico",
	}}

	doc := BuildNewPost("https://newyorker.com/x", "", preview)
	card := decodeNode(t, doc.Root.Children[0])

	if card["url"] != "https://www.newyorker.com/magazine/duolingo" {
		t.Errorf("card url = %v", card["url"])
	}
	meta := card["metadata"].(map[string]any)
	want := map[string]string{
		"title": "T", "description": "D", "author": "A", "publisher": "P",
		"thumbnail": "https://img/thumb.jpg", "icon": "https://img/favicon.ico",
	}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("metadata[%s] = %v, want %q", k, meta[k], v)
		}
	}
	if card["caption"] != "" {
		t.Errorf("caption = %v, want empty", card["caption"])
	}
}

func TestBookmarkCardFallsBackToLink(t *testing.T) {
	card := Bookmark("https://a.com", PreviewMetadata{Title: "T"})
	if card.URL != "https://a.com" {
		t.Errorf("card url = %q, want the submitted link", card.URL)
	}
}

func TestAppendToPostIsPureAppend(t *testing.T) {
	existing := `{"root":{"children":[` +
		`{"type":"image","version":1,"src":"https://img/x.png","customField":{"a":[1,2]}},` +
		`{"children":[],"direction":"ltr","format":"","indent":0,"type":"paragraph","version":1}` +
		`],"direction":"ltr","format":"","indent":0,"type":"root","version":1,"extra":"kept"}}`

	doc, err := Parse(existing)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	before := make([]json.RawMessage, doc.Len())
	for i, c := range doc.Root.Children {
		before[i] = append(json.RawMessage(nil), c...)
	}

	out := AppendToPost(doc, "https://b.com", "note", nil)

	if doc.Len() != 2 {
		t.Fatalf("input document mutated: %d nodes, want 2", doc.Len())
	}
	if out.Len() != 5 {
		t.Fatalf("AppendToPost() has %d nodes, want 5", out.Len())
	}
	for i := range before {
		if !bytes.Equal(out.Root.Children[i], before[i]) {
			t.Errorf("prefix node %d changed:\n got %s\nwant %s", i, out.Root.Children[i], before[i])
		}
	}

	spacer := decodeNode(t, out.Root.Children[2])
	if spacer["type"] != "paragraph" || len(spacer["children"].([]any)) != 0 {
		t.Errorf("spacer = %v, want empty paragraph", spacer)
	}
	if got := linkURL(t, out.Root.Children[3]); got != "https://b.com" {
		t.Errorf("appended link = %q", got)
	}
	if out.NodeType(4) != "paragraph" {
		t.Errorf("note node type = %q", out.NodeType(4))
	}

	var reencoded map[string]map[string]any
	if err := json.Unmarshal([]byte(out.String()), &reencoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if reencoded["root"]["extra"] != "kept" {
		t.Errorf("unknown root field lost: %v", reencoded["root"])
	}
}

func TestAppendToPostWithoutNote(t *testing.T) {
	doc := BuildNewPost("https://a.com", "", nil)
	out := AppendToPost(doc, "https://b.com", "", &Preview{Metadata: &PreviewMetadata{Title: "B"}})

	if out.Len() != 3 {
		t.Fatalf("AppendToPost() has %d nodes, want 3", out.Len())
	}
	if out.NodeType(1) != "paragraph" || out.NodeType(2) != "bookmark" {
		t.Errorf("appended types = %q, %q", out.NodeType(1), out.NodeType(2))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "<p>html</p>"},
		{"no root", `{"foo":{}}`},
		{"null root", `{"root":null}`},
		{"children not a list", `{"root":{"children":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.raw); err == nil {
				t.Errorf("Parse(%q) expected error", tt.raw)
			}
		})
	}
}
