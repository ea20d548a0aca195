package permission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

// ErrInvalidPattern is returned by Grant for patterns that are not
// "scheme://host/path".
var ErrInvalidPattern = errors.New("invalid pattern")

// GrantStore persists patterns granted at runtime.
type GrantStore interface {
	AddGrant(ctx context.Context, pattern string) error
	RemoveGrant(ctx context.Context, pattern string) error
	Grants(ctx context.Context) ([]string, error)
}

// Checker answers permission questions from static patterns (configuration)
// and runtime grants.
type Checker struct {
	static []string
	grants GrantStore
	logger logger.Logger
}

// NewChecker builds a checker. grants may be nil, in which case an
// in-memory store is used.
func NewChecker(static []string, grants GrantStore, log logger.Logger) *Checker {
	if grants == nil {
		grants = NewMemoryGrants()
	}
	if log == nil {
		log = logger.NewNop()
	}
	valid := make([]string, 0, len(static))
	for _, p := range static {
		if _, ok := parsePattern(p); !ok {
			log.Warn("ignoring invalid allowed origin", logger.String("pattern", p))
			continue
		}
		valid = append(valid, p)
	}
	return &Checker{static: valid, grants: grants, logger: log}
}

// HasPermission reports whether requests matching pattern are allowed.
func (c *Checker) HasPermission(ctx context.Context, pattern string) (bool, error) {
	for _, s := range c.static {
		if Covers(s, pattern) {
			return true, nil
		}
	}
	granted, err := c.grants.Grants(ctx)
	if err != nil {
		return false, fmt.Errorf("load grants: %w", err)
	}
	for _, g := range granted {
		if Covers(g, pattern) {
			return true, nil
		}
	}
	c.logger.Debug("permission not granted", logger.String("pattern", pattern))
	return false, nil
}

// Grant records pattern. Patterns already covered statically are not stored.
func (c *Checker) Grant(ctx context.Context, pattern string) error {
	if _, ok := parsePattern(pattern); !ok {
		return fmt.Errorf("%w %q", ErrInvalidPattern, pattern)
	}
	for _, s := range c.static {
		if Covers(s, pattern) {
			return nil
		}
	}
	if err := c.grants.AddGrant(ctx, pattern); err != nil {
		return fmt.Errorf("grant %s: %w", pattern, err)
	}
	c.logger.Info("permission granted", logger.String("pattern", pattern))
	return nil
}

// Revoke forgets a runtime grant. Static patterns cannot be revoked.
func (c *Checker) Revoke(ctx context.Context, pattern string) error {
	if err := c.grants.RemoveGrant(ctx, pattern); err != nil {
		return fmt.Errorf("revoke %s: %w", pattern, err)
	}
	c.logger.Info("permission revoked", logger.String("pattern", pattern))
	return nil
}

// List returns the static patterns and the runtime grants.
func (c *Checker) List(ctx context.Context) (static, granted []string, err error) {
	granted, err = c.grants.Grants(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load grants: %w", err)
	}
	sort.Strings(granted)
	return append([]string(nil), c.static...), granted, nil
}

// MemoryGrants is a GrantStore for single-process deployments.
type MemoryGrants struct {
	mu     sync.RWMutex
	grants map[string]struct{}
}

func NewMemoryGrants() *MemoryGrants {
	return &MemoryGrants{grants: make(map[string]struct{})}
}

func (m *MemoryGrants) AddGrant(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[pattern] = struct{}{}
	return nil
}

func (m *MemoryGrants) RemoveGrant(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, pattern)
	return nil
}

func (m *MemoryGrants) Grants(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.grants))
	for p := range m.grants {
		out = append(out, p)
	}
	return out, nil
}
