package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable name.
const Prefix = "GHOSTMARK_"

type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR"      envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `env:"PRETTY_LOG" envDefault:"true"` // true => zap dev (color), false => zap prod (JSON)

	SettingsFile string        `env:"SETTINGS_FILE" envDefault:"ghostmark.yaml"` // used when Redis is disabled
	GhostTimeout time.Duration `env:"GHOST_TIMEOUT" envDefault:"15s"`

	// Host patterns always allowed, in addition to runtime grants.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"https://*.ghost.io/*"`

	// Admin access restrictions (settings, permissions, prune)
	AllowedHosts []string `env:"ALLOWED_HOSTS"`
	AllowedCIDRS []string `env:"ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128"`
	TrustProxy   bool     `env:"TRUST_PROXY"   envDefault:"false"`

	RateLimitBurst  int `env:"RATE_LIMIT_BURST"   envDefault:"10"`
	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`

	InboxSize      int           `env:"INBOX_SIZE"      envDefault:"100"`
	InboxRetention time.Duration `env:"INBOX_RETENTION" envDefault:"168h"`
	PruneInterval  time.Duration `env:"PRUNE_INTERVAL"  envDefault:"1h"`

	// Redis, disabled when RedisAddr is empty
	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisUser           string        `env:"REDIS_USERNAME"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB"              envDefault:"0"`
	RedisNamespace      string        `env:"REDIS_NAMESPACE"`
	RedisPoolSize       int           `env:"REDIS_POOL_SIZE"       envDefault:"10"`
	RedisDialTimeout    time.Duration `env:"REDIS_DIAL_TIMEOUT"    envDefault:"5s"`
	RedisReadTimeout    time.Duration `env:"REDIS_READ_TIMEOUT"    envDefault:"3s"`
	RedisWriteTimeout   time.Duration `env:"REDIS_WRITE_TIMEOUT"   envDefault:"3s"`
	RedisConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	RedisRetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL"  envDefault:"2s"`
	RedisMaxWait        time.Duration `env:"REDIS_MAX_WAIT"        envDefault:"10s"`
	RedisPingTimeout    time.Duration `env:"REDIS_PING_TIMEOUT"    envDefault:"5s"`
	RedisRecent         int           `env:"REDIS_RECENT"          envDefault:"50"`
}

// Load reads the configuration from GHOSTMARK_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	cfg.AllowedHosts = trimAll(cfg.AllowedHosts)
	cfg.AllowedCIDRS = trimAll(cfg.AllowedCIDRS)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%sLOG_LEVEL: unknown level %q", Prefix, c.LogLevel)
	}
	if c.RateLimitBurst < 1 || c.RateLimitPerMin < 1 {
		return fmt.Errorf("%sRATE_LIMIT_*: burst and refill must be >= 1", Prefix)
	}
	if c.InboxSize < 1 {
		return fmt.Errorf("%sINBOX_SIZE must be >= 1, got %d", Prefix, c.InboxSize)
	}
	for name, d := range map[string]time.Duration{
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
		"REQUEST_TIMEOUT":  c.RequestTimeout,
		"GHOST_TIMEOUT":    c.GhostTimeout,
		"PRUNE_INTERVAL":   c.PruneInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s%s must be > 0, got %v", Prefix, name, d)
		}
	}
	return nil
}

// Redacted is a copy safe to log.
func (c *Config) Redacted() Config {
	r := *c
	if r.RedisPassword != "" {
		r.RedisPassword = "***REDACTED***"
	}
	if r.RedisUser != "" {
		r.RedisUser = "***REDACTED***"
	}
	return r
}

// trimAll trims spaces and surrounding quotes and drops empty entries.
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
