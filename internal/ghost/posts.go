package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/lexical"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

const (
	fetchFallback  = "Couldn't fetch posts."
	createFallback = "Error trying to create a new post."
	updateFallback = "Error trying to update post."
)

// Post is a post as returned by the Admin API. Every field received is
// kept so an update sends the post back whole, updated_at included, which
// Ghost uses for collision detection.
type Post struct {
	ID      string
	UUID    string
	Lexical string

	raw map[string]json.RawMessage
}

// UnmarshalJSON keeps the raw fields next to the ones ghostmark reads.
func (p *Post) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var known struct {
		ID      string  `json:"id"`
		UUID    string  `json:"uuid"`
		Lexical *string `json:"lexical"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	p.ID, p.UUID, p.raw = known.ID, known.UUID, raw
	p.Lexical = ""
	if known.Lexical != nil {
		p.Lexical = *known.Lexical
	}
	return nil
}

// MarshalJSON writes back every received field with the current lexical.
func (p Post) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.raw)+3)
	for k, v := range p.raw {
		out[k] = v
	}
	out["id"] = p.ID
	if p.UUID != "" {
		out["uuid"] = p.UUID
	}
	out["lexical"] = p.Lexical
	return json.Marshal(out)
}

// Document parses the post's lexical. A post without one cannot be
// appended to and fails NO_LEXICAL.
func (p *Post) Document() (*lexical.Document, error) {
	if p.Lexical == "" {
		return nil, domain.NewError(domain.CodeNoLexical, nil)
	}
	doc, err := lexical.Parse(p.Lexical)
	if err != nil {
		return nil, domain.NewError(domain.CodeNoLexical, err)
	}
	return doc, nil
}

type postsEnvelope struct {
	Posts []*Post `json:"posts"`
}

type newPost struct {
	Title   string `json:"title"`
	Lexical string `json:"lexical"`
	Status  string `json:"status"`
}

// FetchAggregatorPost returns the oldest draft titled "Bookmarked links",
// or nil when there is none.
func (c *Client) FetchAggregatorPost(ctx context.Context, site, token string) (*Post, error) {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("title:'%s'+status:draft", domain.AggregatorTitle))
	q.Set("order", "published_at asc")
	q.Set("limit", "1")
	q.Set("formats", "lexical")

	resp, err := c.do(ctx, http.MethodGet, adminURL(site, "posts/")+"?"+q.Encode(), token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, domain.Classify(resp.firstError(), fetchFallback)
	}
	if err := resp.redirectError(); err != nil {
		return nil, err
	}

	var env postsEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return nil, &domain.Error{Code: domain.CodeFetchFailed, Message: fetchFallback, Err: err}
	}
	if len(env.Posts) == 0 {
		c.logger.Debug("no aggregator post found")
		return nil, nil
	}
	return env.Posts[0], nil
}

// CreateAggregatorPost creates the draft aggregator post holding doc and
// returns its uuid.
func (c *Client) CreateAggregatorPost(ctx context.Context, site, token string, doc *lexical.Document) (string, error) {
	payload := map[string][]newPost{
		"posts": {{Title: domain.AggregatorTitle, Lexical: doc.String(), Status: "draft"}},
	}

	resp, err := c.do(ctx, http.MethodPost, adminURL(site, "posts/"), token, payload)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", domain.Classify(resp.firstError(), createFallback)
	}
	if err := resp.redirectError(); err != nil {
		return "", err
	}

	uuid, err := firstUUID(resp.body, createFallback)
	if err != nil {
		return "", err
	}
	c.logger.Info("aggregator post created", logger.String("uuid", uuid))
	return uuid, nil
}

// UpdateAggregatorPost replaces the lexical of post with doc and sends the
// whole post back. post itself is left untouched.
func (c *Client) UpdateAggregatorPost(ctx context.Context, site string, post *Post, token string, doc *lexical.Document) (string, error) {
	if post == nil || post.Lexical == "" {
		return "", domain.NewError(domain.CodeNoLexical, nil)
	}

	updated := *post
	updated.Lexical = doc.String()
	payload := map[string][]Post{"posts": {updated}}

	resp, err := c.do(ctx, http.MethodPut, adminURL(site, "posts/"+url.PathEscape(post.ID)+"/"), token, payload)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", domain.Classify(resp.firstError(), updateFallback)
	}
	if err := resp.redirectError(); err != nil {
		return "", err
	}

	uuid, err := firstUUID(resp.body, updateFallback)
	if err != nil {
		return "", err
	}
	c.logger.Info("aggregator post updated",
		logger.String("uuid", uuid),
		logger.Int("nodes", doc.Len()))
	return uuid, nil
}

func firstUUID(body []byte, fallback string) (string, error) {
	var env postsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &domain.Error{Code: domain.CodeFetchFailed, Message: fallback, Err: err}
	}
	if len(env.Posts) == 0 || env.Posts[0].UUID == "" {
		return "", &domain.Error{Code: domain.CodeFetchFailed, Message: fallback}
	}
	return env.Posts[0].UUID, nil
}
