package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

const (
	// DefaultRetention is how long notifications stay in the inbox.
	DefaultRetention = 7 * 24 * time.Hour
)

// Prunable is anything that can drop entries older than a cutoff.
type Prunable interface {
	Prune(cutoff time.Time) int
	Len() int
}

// InboxPruner periodically drops old notifications from the inbox
type InboxPruner struct {
	inbox     Prunable
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	onPruned  func(n int)
	now       func() time.Time

	trigger  chan struct{}
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewInboxPruner creates a pruner. onPruned, when non-nil, is called with
// the number of removed notifications after every non-empty run.
func NewInboxPruner(
	inbox Prunable,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
	onPruned func(n int),
) *InboxPruner {
	if retention == 0 {
		retention = DefaultRetention
	}

	return &InboxPruner{
		inbox:     inbox,
		logger:    log,
		interval:  interval,
		retention: retention,
		onPruned:  onPruned,
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start runs a first pass and then prunes on every tick until ctx is done
// or Stop is called.
func (p *InboxPruner) Start(ctx context.Context) {
	p.Prune()

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Prune()
			case <-p.trigger:
				p.Prune()
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Trigger asks the running pruner for an immediate pass. It reports false
// when a pass is already pending.
func (p *InboxPruner) Trigger() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop stops the pruner. Safe to call more than once.
func (p *InboxPruner) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Prune removes notifications older than the retention window.
func (p *InboxPruner) Prune() int {
	cutoff := p.now().Add(-p.retention)
	removed := p.inbox.Prune(cutoff)

	if removed == 0 {
		p.logger.Debug("no notifications to prune")
		return 0
	}

	p.logger.Info("pruned notifications",
		logger.Int("removed", removed),
		logger.Int("remaining", p.inbox.Len()),
		logger.String("retention", p.retention.String()))
	if p.onPruned != nil {
		p.onPruned(removed)
	}
	return removed
}
