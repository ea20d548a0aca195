// Package ghost talks to the Ghost Admin API: token signing, the
// aggregator post, oEmbed previews and site discovery.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
	"github.com/MrSnakeDoc/ghostmark/internal/utils"
	"github.com/MrSnakeDoc/ghostmark/internal/version"
)

const (
	adminPath = "/ghost/api/admin/"
	// acceptVersion pins the Admin API contract the lexical format belongs to.
	acceptVersion = "v5.0"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client is a Ghost Admin API client. It is safe for concurrent use.
type Client struct {
	http   *http.Client
	logger logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient builds a client. Redirects are followed; the final URL is
// inspected for Ghost(Pro) landing pages.
func NewClient(log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		http:   &http.Client{Timeout: defaultTimeout},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// adminURL joins a site base URL and an admin resource, e.g. "posts/".
func adminURL(site, resource string) string {
	return strings.TrimRight(site, "/") + adminPath + resource
}

// response is a fully read HTTP response.
type response struct {
	status   int
	finalURL string
	body     []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// apiErrors is the error envelope of the Admin API.
type apiErrors struct {
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// firstError returns the message of the first reported error, or "".
func (r *response) firstError() string {
	var e apiErrors
	if err := json.Unmarshal(r.body, &e); err != nil || len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

// redirectError fails with the landing-page category when the request was
// redirected to one, regardless of the status.
func (r *response) redirectError() error {
	if code, ok := domain.ClassifyRedirect(r.finalURL); ok {
		return domain.NewError(code, fmt.Errorf("redirected to %s", r.finalURL))
	}
	return nil
}

// do sends one request. An empty token sends an anonymous request. Any
// transport failure is FAILED_REQUEST.
func (c *Client) do(ctx context.Context, method, rawURL, token string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidAPIURL, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Ghost "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "null")
	req.Header.Set("Accept-Version", acceptVersion)
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("ghost request failed",
			logger.String("method", method),
			logger.String("url", rawURL),
			logger.Error(err))
		return nil, domain.NewError(domain.CodeFailedRequest, err)
	}
	defer utils.DrainClose(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewError(domain.CodeFailedRequest, err)
	}

	out := &response{status: resp.StatusCode, finalURL: rawURL, body: data}
	if resp.Request != nil && resp.Request.URL != nil {
		out.finalURL = resp.Request.URL.String()
	}

	c.logger.Debug("ghost request",
		logger.String("method", method),
		logger.String("url", rawURL),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	return out, nil
}
