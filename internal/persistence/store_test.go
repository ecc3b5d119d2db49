package persistence

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/config"
)

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.SetNX(ctx, "nonce:a", "pending", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim should succeed: %v %v", ok, err)
	}
	ok, _ = m.SetNX(ctx, "nonce:a", "pending", time.Minute)
	if ok {
		t.Fatalf("second claim must fail")
	}
	if err := m.Set(ctx, "nonce:a", "42", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found, _ := m.Get(ctx, "nonce:a")
	if !found || val != "42" {
		t.Fatalf("unexpected value %q %v", val, found)
	}
	_ = m.Del(ctx, "nonce:a")
	if _, found, _ := m.Get(ctx, "nonce:a"); found {
		t.Fatalf("deleted key still present")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "k", "v", time.Minute)
	now = now.Add(59 * time.Second)
	if _, found, _ := m.Get(ctx, "k"); !found {
		t.Fatalf("key should still be live")
	}
	now = now.Add(time.Second)
	if _, found, _ := m.Get(ctx, "k"); found {
		t.Fatalf("key should have expired")
	}
	if ok, _ := m.SetNX(ctx, "k", "again", 0); !ok {
		t.Fatalf("expired key must be claimable")
	}
}

func TestNewStoreFallsBackToMemory(t *testing.T) {
	store := NewStore(config.RedisConfig{}, zap.NewNop())
	if _, ok := store.(*Memory); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("memory ping: %v", err)
	}
}
