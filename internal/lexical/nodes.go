// Package lexical builds the Lexical JSON documents the Ghost editor stores
// in a post's "lexical" field.
package lexical

const nodeVersion = 1

// Preview is the oEmbed bookmark payload Ghost returns for a URL.
type Preview struct {
	Version  string           `json:"version"`
	Type     string           `json:"type"`
	URL      string           `json:"url"`
	Metadata *PreviewMetadata `json:"metadata"`
}

// PreviewMetadata describes the page behind a link.
type PreviewMetadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Thumbnail   string `json:"thumbnail"`
	Icon        string `json:"icon"`
}

// HasMetadata reports whether a bookmark card can be built from p.
func (p *Preview) HasMetadata() bool {
	return p != nil && p.Metadata != nil && *p.Metadata != PreviewMetadata{}
}

// TextNode is a leaf run of plain text.
type TextNode struct {
	Detail  int    `json:"detail"`
	Format  int    `json:"format"`
	Mode    string `json:"mode"`
	Style   string `json:"style"`
	Text    string `json:"text"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// ParagraphNode is a block element. Direction is nil only for the default
// paragraph of an empty document.
type ParagraphNode struct {
	Children  []any   `json:"children"`
	Direction *string `json:"direction"`
	Format    string  `json:"format"`
	Indent    int     `json:"indent"`
	Type      string  `json:"type"`
	Version   int     `json:"version"`
}

// LinkNode is an inline anchor wrapping text children.
type LinkNode struct {
	Children  []any   `json:"children"`
	Direction string  `json:"direction"`
	Format    string  `json:"format"`
	Indent    int     `json:"indent"`
	Type      string  `json:"type"`
	Version   int     `json:"version"`
	Rel       *string `json:"rel"`
	Target    *string `json:"target"`
	Title     *string `json:"title"`
	URL       string  `json:"url"`
}

// BookmarkNode is Ghost's bookmark card.
type BookmarkNode struct {
	Type     string           `json:"type"`
	Version  int              `json:"version"`
	URL      string           `json:"url"`
	Metadata BookmarkMetadata `json:"metadata"`
	Caption  string           `json:"caption"`
}

// BookmarkMetadata is the card body. It carries no url, the card does.
type BookmarkMetadata struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Thumbnail   string `json:"thumbnail"`
}

func ltr() *string {
	d := "ltr"
	return &d
}

func textNode(text string) TextNode {
	return TextNode{Mode: "normal", Text: text, Type: "text", Version: nodeVersion}
}

// Paragraph wraps children in an ltr paragraph.
func Paragraph(children ...any) ParagraphNode {
	if children == nil {
		children = []any{}
	}
	return ParagraphNode{Children: children, Direction: ltr(), Type: "paragraph", Version: nodeVersion}
}

// EmptyParagraph separates consecutive bookmarks.
func EmptyParagraph() ParagraphNode {
	return Paragraph()
}

// Link is a paragraph holding a single anchor whose text is the URL itself.
func Link(link string) ParagraphNode {
	anchor := LinkNode{
		Children:  []any{textNode(link)},
		Direction: "ltr",
		Type:      "link",
		Version:   nodeVersion,
		URL:       link,
	}
	return Paragraph(anchor)
}

// Note is a paragraph with the user's note as plain text.
func Note(note string) ParagraphNode {
	return Paragraph(textNode(note))
}

// Bookmark builds a card from preview metadata. The card points at the
// canonical URL from the metadata and falls back to link.
func Bookmark(link string, meta PreviewMetadata) BookmarkNode {
	cardURL := meta.URL
	if cardURL == "" {
		cardURL = link
	}
	return BookmarkNode{
		Type:    "bookmark",
		Version: nodeVersion,
		URL:     cardURL,
		Metadata: BookmarkMetadata{
			Icon:        meta.Icon,
			Title:       meta.Title,
			Description: meta.Description,
			Author:      meta.Author,
			Publisher:   meta.Publisher,
			Thumbnail:   meta.Thumbnail,
		},
	}
}

// linkOrCard picks the bookmark card when preview metadata is present and a
// plain link otherwise.
func linkOrCard(link string, preview *Preview) any {
	if preview.HasMetadata() {
		return Bookmark(link, *preview.Metadata)
	}
	return Link(link)
}
