package lexical

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Document is a Lexical editor state. Existing children are kept as raw
// JSON so node types this package does not know survive an update intact.
type Document struct {
	Root Root `json:"root"`
}

// Root is the top-level node. Fields other than children are carried over
// untouched.
type Root struct {
	Children []json.RawMessage
	fields   map[string]json.RawMessage
}

// UnmarshalJSON keeps every root field and splits out the children.
func (r *Root) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var children []json.RawMessage
	if raw, ok := fields["children"]; ok {
		if err := json.Unmarshal(raw, &children); err != nil {
			return fmt.Errorf("root children: %w", err)
		}
		delete(fields, "children")
	}
	r.Children = children
	r.fields = fields
	return nil
}

// MarshalJSON writes the preserved fields back with the current children.
func (r Root) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.fields)+1)
	for k, v := range r.fields {
		out[k] = v
	}
	children := r.Children
	if children == nil {
		children = []json.RawMessage{}
	}
	raw, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	out["children"] = raw
	return json.Marshal(out)
}

// newRoot returns the root of an empty editor state: one default empty
// paragraph with no direction.
func newRoot() Root {
	empty, _ := json.Marshal(ParagraphNode{Children: []any{}, Type: "paragraph", Version: nodeVersion})
	return Root{
		Children: []json.RawMessage{empty},
		fields: map[string]json.RawMessage{
			"direction": json.RawMessage("null"),
			"format":    json.RawMessage(`""`),
			"indent":    json.RawMessage("0"),
			"type":      json.RawMessage(`"root"`),
			"version":   json.RawMessage("1"),
		},
	}
}

// ErrNoRoot is returned by Parse for JSON without a root node.
var ErrNoRoot = errors.New("lexical document has no root")

// Parse decodes the lexical string stored on a post.
func Parse(raw string) (*Document, error) {
	var probe struct {
		Root *json.RawMessage `json:"root"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("decode lexical: %w", err)
	}
	if probe.Root == nil {
		return nil, ErrNoRoot
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode lexical: %w", err)
	}
	return &doc, nil
}

// String encodes d the way Ghost expects it in the lexical field.
func (d *Document) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		// Only raw children taken from a valid document are ever stored.
		panic(fmt.Sprintf("lexical: encode document: %v", err))
	}
	return string(b)
}

// Len is the number of root-level nodes.
func (d *Document) Len() int { return len(d.Root.Children) }

// NodeType returns the "type" of the i-th root-level node.
func (d *Document) NodeType(i int) string {
	var n struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(d.Root.Children[i], &n)
	return n.Type
}

func (d *Document) append(nodes ...any) {
	for _, n := range nodes {
		raw, err := json.Marshal(n)
		if err != nil {
			panic(fmt.Sprintf("lexical: encode node: %v", err))
		}
		d.Root.Children = append(d.Root.Children, raw)
	}
}

// clone copies the document so appends never touch the caller's copy.
func (d *Document) clone() *Document {
	fields := make(map[string]json.RawMessage, len(d.Root.fields))
	for k, v := range d.Root.fields {
		fields[k] = v
	}
	children := make([]json.RawMessage, len(d.Root.Children), len(d.Root.Children)+3)
	copy(children, d.Root.Children)
	return &Document{Root: Root{Children: children, fields: fields}}
}

// BuildNewPost is the document of a freshly created aggregator post: the
// default empty paragraph is replaced by the link (or card) and the note.
func BuildNewPost(link, note string, preview *Preview) *Document {
	doc := &Document{Root: newRoot()}
	doc.Root.Children = doc.Root.Children[:0]
	doc.append(linkOrCard(link, preview))
	if note != "" {
		doc.append(Note(note))
	}
	return doc
}

// AppendToPost returns a copy of doc followed by a spacer, the link (or
// card) and the note. Existing nodes are never modified, deduplicated or
// pruned.
func AppendToPost(doc *Document, link, note string, preview *Preview) *Document {
	out := doc.clone()
	out.append(EmptyParagraph(), linkOrCard(link, preview))
	if note != "" {
		out.append(Note(note))
	}
	return out
}
