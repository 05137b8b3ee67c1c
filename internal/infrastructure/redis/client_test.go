package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, Config{URL: fmt.Sprintf("redis://%s", s.Addr()), Timeout: time.Second, PoolSize: 4})
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if got := client.Options().PoolSize; got != 4 {
		t.Fatalf("expected pool size 4, got %d", got)
	}
	if got := client.Options().ReadTimeout; got != time.Second {
		t.Fatalf("expected read timeout 1s, got %s", got)
	}
	if err := Ping(ctx, client, 0); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{URL: "://bad-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNewClient_ServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	if _, err := NewClient(context.Background(), Config{URL: url, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected ping error when server is down")
	}
}
