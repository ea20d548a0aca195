package settings

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/ghost"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// SiteValidator resolves a site base URL to its canonical form.
type SiteValidator interface {
	ValidateSite(ctx context.Context, site string) (string, *ghost.Site, error)
}

// KeyTester checks that an API key works against a site.
type KeyTester interface {
	Issue(apiKey string) (string, error)
}

// PostFetcher is the read the key test performs.
type PostFetcher interface {
	FetchAggregatorPost(ctx context.Context, site, token string) (*ghost.Post, error)
}

// Granter manages host permissions.
type Granter interface {
	Grant(ctx context.Context, pattern string) error
	Revoke(ctx context.Context, pattern string) error
}

// Manager runs the onboarding flow: sanitize the URL, discover the
// canonical site, grant it, test the key, save.
type Manager struct {
	store  Store
	sites  SiteValidator
	tokens KeyTester
	posts  PostFetcher
	perms  Granter
	logger logger.Logger
}

func NewManager(store Store, sites SiteValidator, tokens KeyTester, posts PostFetcher, perms Granter, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{store: store, sites: sites, tokens: tokens, posts: posts, perms: perms, logger: log}
}

// Save validates and stores new settings and returns them as stored.
// Errors are *domain.Error.
func (m *Manager) Save(ctx context.Context, apiURL, apiKey string) (domain.Settings, error) {
	site, err := SanitizeSiteURL(apiURL)
	if err != nil {
		return domain.Settings{}, err
	}
	if _, err := domain.ParseCredentials(apiKey); err != nil {
		return domain.Settings{}, err
	}

	pattern := domain.SitePattern(site)
	if err := m.perms.Grant(ctx, pattern); err != nil {
		return domain.Settings{}, domain.NewError(domain.CodeNoPermission, err)
	}

	canonical, _, err := m.sites.ValidateSite(ctx, site)
	if err != nil {
		m.revoke(ctx, pattern)
		return domain.Settings{}, asDomain(err, domain.CodeNotGhost)
	}
	if canonical != site {
		m.revoke(ctx, pattern)
		if err := m.perms.Grant(ctx, domain.SitePattern(canonical)); err != nil {
			return domain.Settings{}, domain.NewError(domain.CodeNoPermission, err)
		}
		site = canonical
	}

	if err := m.testKey(ctx, site, apiKey); err != nil {
		return domain.Settings{}, err
	}

	s := domain.Settings{APIURL: site, APIKey: apiKey}
	if err := m.store.Save(ctx, s); err != nil {
		return domain.Settings{}, domain.NewError(domain.CodeDefault, err)
	}
	m.logger.Info("settings saved", logger.String("site", site))
	return s, nil
}

// testKey signs a token and reads the aggregator post with it. Any failure
// means the key is unusable.
func (m *Manager) testKey(ctx context.Context, site, apiKey string) error {
	token, err := m.tokens.Issue(apiKey)
	if err != nil {
		return domain.NewError(domain.CodeInvalidAPIKey, err)
	}
	if _, err := m.posts.FetchAggregatorPost(ctx, site, token); err != nil {
		m.logger.Warn("api key test failed", logger.String("site", site), logger.Error(err))
		return domain.NewError(domain.CodeInvalidAPIKey, err)
	}
	return nil
}

func (m *Manager) revoke(ctx context.Context, pattern string) {
	if err := m.perms.Revoke(ctx, pattern); err != nil {
		m.logger.Warn("failed to revoke permission", logger.String("pattern", pattern), logger.Error(err))
	}
}

// Current returns the stored settings with the key masked.
func (m *Manager) Current(ctx context.Context) (domain.Settings, error) {
	s, err := m.store.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return s.Masked(), nil
}

// Load returns the stored settings unmasked.
func (m *Manager) Load(ctx context.Context) (domain.Settings, error) {
	return m.store.Load(ctx)
}

func asDomain(err error, code domain.Code) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.NewError(code, err)
}
