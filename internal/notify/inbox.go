// Package notify delivers the outcome of background submissions.
package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// DefaultInboxSize bounds the inbox when no size is configured.
const DefaultInboxSize = 100

// Inbox keeps recent notifications in memory, newest first.
type Inbox struct {
	mu    sync.RWMutex
	items []domain.Notification
	max   int
}

// NewInbox creates an inbox holding at most max notifications.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = DefaultInboxSize
	}
	return &Inbox{max: max}
}

// Notify stores n, evicting the oldest entry when full.
func (i *Inbox) Notify(_ context.Context, n domain.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append([]domain.Notification{n}, i.items...)
	if len(i.items) > i.max {
		i.items = i.items[:i.max]
	}
	return nil
}

// List returns up to limit notifications created after since, newest
// first. A zero since or limit disables that filter.
func (i *Inbox) List(since time.Time, limit int) []domain.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.Notification, 0, len(i.items))
	for _, n := range i.items {
		if !since.IsZero() && !n.CreatedAt.After(since) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Get returns the notification with id.
func (i *Inbox) Get(id string) (domain.Notification, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, n := range i.items {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Notification{}, false
}

// Len is the current number of notifications.
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.items)
}

// Prune drops notifications created before cutoff and returns how many
// were removed.
func (i *Inbox) Prune(cutoff time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	kept := i.items[:0]
	for _, n := range i.items {
		if n.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, n)
	}
	removed := len(i.items) - len(kept)
	i.items = kept
	// Keep the newest-first order even if CreatedAt was set out of order.
	sort.SliceStable(i.items, func(a, b int) bool {
		return i.items[a].CreatedAt.After(i.items[b].CreatedAt)
	})
	return removed
}

// Notifier is anything notifications can be delivered to.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Multi fans a notification out to several notifiers. Every notifier is
// tried; failures are logged and the first one is returned.
type Multi struct {
	targets []Notifier
	logger  logger.Logger
}

func NewMulti(log logger.Logger, targets ...Notifier) *Multi {
	if log == nil {
		log = logger.NewNop()
	}
	return &Multi{targets: targets, logger: log}
}

func (m *Multi) Notify(ctx context.Context, n domain.Notification) error {
	var first error
	for _, t := range m.targets {
		if err := t.Notify(ctx, n); err != nil {
			m.logger.Warn("notification delivery failed",
				logger.String("id", n.ID),
				logger.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
