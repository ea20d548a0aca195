package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

func TestCovers(t *testing.T) {
	tests := []struct {
		granted   string
		requested string
		want      bool
	}{
		{"https://blog.example.com/*", "https://blog.example.com/*", true},
		{"https://blog.example.com/*", "https://blog.example.com/sub/*", true},
		{"https://blog.example.com/sub/*", "https://blog.example.com/*", false},
		{"https://blog.example.com/*", "http://blog.example.com/*", false},
		{"*://blog.example.com/*", "http://blog.example.com/*", true},
		{"*://blog.example.com/*", "https://blog.example.com/*", true},
		{"*://blog.example.com/*", "ftp://blog.example.com/*", false},
		{"*://blog.example.com/*", "ws://blog.example.com/*", false},
		{"ftp://blog.example.com/*", "ftp://blog.example.com/*", true},
		{"https://*.ghost.io/*", "https://myblog.ghost.io/*", true},
		{"https://*.ghost.io/*", "https://ghost.io/*", true},
		{"https://*.ghost.io/*", "https://evilghost.io/*", false},
		{"https://*/*", "https://anything.example/*", true},
		{"https://Blog.Example.com/*", "https://blog.example.com/*", true},
		{"not a pattern", "https://blog.example.com/*", false},
		{"https://blog.example.com/*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.granted+" "+tt.requested, func(t *testing.T) {
			if got := Covers(tt.granted, tt.requested); got != tt.want {
				t.Errorf("Covers(%q, %q) = %v, want %v", tt.granted, tt.requested, got, tt.want)
			}
		})
	}
}

func TestCheckerStaticAndGrants(t *testing.T) {
	ctx := context.Background()
	c := NewChecker([]string{"https://*.ghost.io/*", "bogus"}, nil, logger.NewNop())

	ok, err := c.HasPermission(ctx, "https://me.ghost.io/*")
	if err != nil || !ok {
		t.Fatalf("static pattern: HasPermission() = %v, %v", ok, err)
	}

	site := "https://blog.example.com/*"
	if ok, _ := c.HasPermission(ctx, site); ok {
		t.Fatal("permission granted before Grant()")
	}
	if err := c.Grant(ctx, site); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if ok, _ := c.HasPermission(ctx, site); !ok {
		t.Error("permission missing after Grant()")
	}

	static, granted, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(static) != 1 || static[0] != "https://*.ghost.io/*" {
		t.Errorf("static = %v, invalid pattern should be dropped", static)
	}
	if len(granted) != 1 || granted[0] != site {
		t.Errorf("granted = %v", granted)
	}

	if err := c.Revoke(ctx, site); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if ok, _ := c.HasPermission(ctx, site); ok {
		t.Error("permission still granted after Revoke()")
	}
}

func TestGrantSkipsStaticallyCovered(t *testing.T) {
	ctx := context.Background()
	grants := NewMemoryGrants()
	c := NewChecker([]string{"https://*.ghost.io/*"}, grants, logger.NewNop())

	if err := c.Grant(ctx, "https://me.ghost.io/*"); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if got, _ := grants.Grants(ctx); len(got) != 0 {
		t.Errorf("stored grants = %v, want none", got)
	}
	if err := c.Grant(ctx, "no-scheme"); err == nil {
		t.Error("Grant() accepted an invalid pattern")
	}
}

type failingGrants struct{ MemoryGrants }

func (*failingGrants) Grants(context.Context) ([]string, error) {
	return nil, errors.New("redis down")
}

func TestHasPermissionStoreError(t *testing.T) {
	c := NewChecker(nil, &failingGrants{}, logger.NewNop())
	if _, err := c.HasPermission(context.Background(), "https://a.com/*"); err == nil {
		t.Error("HasPermission() hid a store error")
	}
}
