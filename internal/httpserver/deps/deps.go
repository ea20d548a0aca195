package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
	"github.com/MrSnakeDoc/ghostmark/internal/metrics"
)

// Bookmarker runs submissions.
type Bookmarker interface {
	Submit(ctx context.Context, req bookmarker.Request) (bookmarker.Result, error)
	SubmitBackground(ctx context.Context, req bookmarker.Request)
}

// SettingsManager is the onboarding flow behind /api/settings.
type SettingsManager interface {
	Save(ctx context.Context, apiURL, apiKey string) (domain.Settings, error)
	Current(ctx context.Context) (domain.Settings, error)
	Load(ctx context.Context) (domain.Settings, error)
}

// Permissions manages host permission grants.
type Permissions interface {
	Grant(ctx context.Context, pattern string) error
	Revoke(ctx context.Context, pattern string) error
	List(ctx context.Context) (static, granted []string, err error)
}

// Inbox is the in-memory display surface for background outcomes.
type Inbox interface {
	List(since time.Time, limit int) []domain.Notification
	Get(id string) (domain.Notification, bool)
}

// RecentFeed is the Redis-backed list shared between instances.
type RecentFeed interface {
	Recent(ctx context.Context, limit int) ([]domain.Notification, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed on admin routes
	AllowedCIDRS []string // IPs allowed on admin routes and readyz
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	RateLimitBurst  int // bookmark submissions per client IP before throttling
	RateLimitPerMin int // refill rate of the submission bucket

	Bookmarks   Bookmarker
	Settings    SettingsManager
	Permissions Permissions
	Inbox       Inbox
	Recent      RecentFeed // nil when Redis is disabled
	Redis       Pinger     // nil when Redis is disabled

	Metrics      *metrics.Metrics // nil disables /metrics and request counting
	PruneTrigger func() bool      // manual inbox prune, nil when no pruner runs
}
