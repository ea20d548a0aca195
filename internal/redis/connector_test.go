package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/ghostmark/internal/logger"
)

func testOptions(addr string) Options {
	return Options{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        80 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Errorf("client unusable: %v", err)
	}
}

func TestConnectGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := Connect(context.Background(), testOptions(addr), logger.NewNop())
	if err == nil {
		t.Fatal("Connect() succeeded against a stopped server")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, connect timeout not honored", elapsed)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty addr", func(o *Options) { o.Addr = "" }},
		{"zero connect timeout", func(o *Options) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *Options) { o.RetryInterval = 0 }},
		{"max wait below retry", func(o *Options) { o.MaxWait = time.Millisecond }},
		{"zero ping timeout", func(o *Options) { o.PingTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions("localhost:6379")
			tt.mutate(&o)
			if err := o.validate(); err == nil {
				t.Error("validate() accepted invalid options")
			}
		})
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(time.Second, 10*time.Second); got != 2*time.Second {
		t.Errorf("nextBackoff(1s) = %v", got)
	}
	if got := nextBackoff(8*time.Second, 10*time.Second); got != 10*time.Second {
		t.Errorf("nextBackoff(8s) = %v, want capped 10s", got)
	}
}
