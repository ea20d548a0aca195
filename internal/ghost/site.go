package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// Site is the public part of /ghost/api/admin/site/.
type Site struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// ValidateSite checks that site hosts a Ghost admin API and returns the
// canonical base URL, which differs from site when Ghost redirected the
// request (www, https, custom domain).
func (c *Client) ValidateSite(ctx context.Context, site string) (string, *Site, error) {
	requestURL := adminURL(site, "site/")

	resp, err := c.do(ctx, http.MethodGet, requestURL, "", nil)
	if err != nil {
		return "", nil, err
	}
	if !resp.ok() {
		return "", nil, domain.NewError(domain.CodeNotGhost,
			fmt.Errorf("%s answered %d", requestURL, resp.status))
	}
	if err := resp.redirectError(); err != nil {
		return "", nil, err
	}

	var env struct {
		Site *Site `json:"site"`
	}
	if err := json.Unmarshal(resp.body, &env); err != nil || env.Site == nil {
		return "", nil, domain.NewError(domain.CodeNotGhost, err)
	}

	canonical := strings.TrimRight(site, "/")
	if resp.finalURL != requestURL {
		canonical, _, _ = strings.Cut(resp.finalURL, "/ghost/api/admin/site")
		c.logger.Info("ghost site moved",
			logger.String("requested", site),
			logger.String("canonical", canonical))
	}
	return canonical, env.Site, nil
}
