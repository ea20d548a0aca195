package ghost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/ghostmark/internal/lexical"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// FetchPreview asks Ghost for bookmark-card metadata about link. It never
// fails: any problem reports false and the caller falls back to a plain
// link.
func (c *Client) FetchPreview(ctx context.Context, site, token, link string) (*lexical.Preview, bool) {
	q := url.Values{}
	q.Set("type", "bookmark")
	q.Set("url", link)

	resp, err := c.do(ctx, http.MethodGet, adminURL(site, "oembed/")+"?"+q.Encode(), token, nil)
	if err != nil {
		c.logger.Debug("oembed unavailable", logger.String("link", link), logger.Error(err))
		return nil, false
	}
	if !resp.ok() {
		c.logger.Debug("oembed rejected",
			logger.String("link", link),
			logger.Int("status", resp.status),
			logger.String("message", resp.firstError()))
		return nil, false
	}

	var p lexical.Preview
	if err := json.Unmarshal(resp.body, &p); err != nil {
		c.logger.Debug("oembed undecodable", logger.String("link", link), logger.Error(err))
		return nil, false
	}
	return &p, true
}
