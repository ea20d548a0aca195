package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/config"
	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/ghost"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver"
	"github.com/MrSnakeDoc/ghostmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
	"github.com/MrSnakeDoc/ghostmark/internal/metrics"
	"github.com/MrSnakeDoc/ghostmark/internal/notify"
	"github.com/MrSnakeDoc/ghostmark/internal/permission"
	"github.com/MrSnakeDoc/ghostmark/internal/redis"
	"github.com/MrSnakeDoc/ghostmark/internal/scheduler"
	"github.com/MrSnakeDoc/ghostmark/internal/settings"
	redisstore "github.com/MrSnakeDoc/ghostmark/internal/store/redis"
	"github.com/MrSnakeDoc/ghostmark/internal/utils"
	"github.com/MrSnakeDoc/ghostmark/internal/version"
)

// grantStore is implemented by both the file and the Redis store.
type grantStore interface {
	settings.Store
	permission.GrantStore
}

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	startTime time.Time

	redisClient *goredis.Client
	shared      *redisstore.Store // nil when Redis is disabled

	store     grantStore
	perms     *permission.Checker
	inbox     *notify.Inbox
	metrics   *metrics.Metrics
	bookmarks *bookmarker.Service
	settings  *settings.Manager
	pruner    *scheduler.InboxPruner
}

// New wires every component. With Redis configured, settings, grants and
// notifications are shared through it; otherwise they live in the settings
// file and this process's memory.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log, startTime: time.Now()}

	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			Username:       cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			PoolSize:       cfg.RedisPoolSize,
			DialTimeout:    cfg.RedisDialTimeout,
			ReadTimeout:    cfg.RedisReadTimeout,
			WriteTimeout:   cfg.RedisWriteTimeout,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		a.redisClient = client
		a.shared = redisstore.NewStore(client, cfg.RedisNamespace, cfg.RedisRecent)
		a.store = a.shared
		log.Info("using redis for settings and notifications")
	} else {
		a.store = settings.NewFileStore(cfg.SettingsFile)
		log.Info("redis disabled, using settings file", logger.String("path", cfg.SettingsFile))
	}

	a.perms = permission.NewChecker(cfg.AllowedOrigins, a.store, log)
	a.inbox = notify.NewInbox(cfg.InboxSize)
	a.metrics = metrics.New()

	client := ghost.NewClient(log, ghost.WithTimeout(cfg.GhostTimeout))
	tokens := ghost.NewTokenIssuer()

	var notifier notify.Notifier = a.inbox
	if a.shared != nil {
		notifier = notify.NewMulti(log, a.inbox, a.shared)
	}

	a.bookmarks = bookmarker.NewService(bookmarker.Deps{
		Config:      a.store,
		Permissions: a.perms,
		Tokens:      tokens,
		Posts:       client,
		Previews:    client,
		Notifier:    notifier,
		Recorder:    a.metrics,
		Logger:      log,
	})
	a.settings = settings.NewManager(a.store, client, tokens, client, a.perms, log)
	a.pruner = scheduler.NewInboxPruner(a.inbox, log, cfg.PruneInterval, cfg.InboxRetention,
		func(n int) { a.metrics.InboxPruned.Add(float64(n)) })

	return a, nil
}

// Bookmarks is the submission service, for one-shot CLI use.
func (a *App) Bookmarks() *bookmarker.Service { return a.bookmarks }

// Settings is the onboarding flow, for one-shot CLI use.
func (a *App) Settings() *settings.Manager { return a.settings }

func (a *App) deps() deps.Deps {
	d := deps.Deps{
		Logger:          a.logger,
		StartTime:       a.startTime,
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    a.cfg.AllowedHosts,
		AllowedCIDRS:    a.cfg.AllowedCIDRS,
		TrustProxy:      a.cfg.TrustProxy,
		RateLimitBurst:  a.cfg.RateLimitBurst,
		RateLimitPerMin: a.cfg.RateLimitPerMin,
		Bookmarks:       a.bookmarks,
		Settings:        a.settings,
		Permissions:     a.perms,
		Inbox:           a.inbox,
		Metrics:         a.metrics,
		PruneTrigger:    a.pruner.Trigger,
	}
	// Typed nils must not reach the interface fields.
	if a.shared != nil {
		d.Recent = a.shared
		d.Redis = a.shared
	}
	return d
}

// Serve runs the HTTP server and background jobs until SIGINT/SIGTERM.
func (a *App) Serve() error {
	a.logger.Info("starting ghostmark",
		logger.String("version", version.String()),
		logger.String("addr", a.cfg.ListenAddr))
	a.logger.Debugf("config: %+v", a.cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.pruner.Start(ctx)
	a.logger.Info("inbox pruner started",
		logger.Duration("interval", a.cfg.PruneInterval),
		logger.Duration("retention", a.cfg.InboxRetention))

	if a.shared != nil {
		go a.followShared(ctx)
	}

	server := httpserver.New(a.cfg, a.logger, a.deps())
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case runErr = <-errCh:
	}

	a.pruner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to stop server: %w", err))
	}

	a.Close()
	if runErr == nil {
		a.logger.Info("ghostmark stopped cleanly")
	}
	return runErr
}

// followShared mirrors notifications from other instances into the local
// inbox. Our own are already there.
func (a *App) followShared(ctx context.Context) {
	err := a.shared.Follow(ctx, func(n domain.Notification) {
		if _, seen := a.inbox.Get(n.ID); seen {
			return
		}
		_ = a.inbox.Notify(ctx, n)
	})
	if err != nil {
		a.logger.Warn("stopped following shared notifications", logger.Error(err))
	}
}

// Close releases the Redis connection, if any.
func (a *App) Close() {
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
	}
	_ = a.logger.Sync()
}
