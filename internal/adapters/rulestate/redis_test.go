package rulestate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisStore_Increment(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisStore(mr.Addr(), "", 0)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := store.Increment(ctx, "signup:u1", 10*time.Minute)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if count != i {
			t.Errorf("expected count %d, got %d", i, count)
		}
	}
}

func TestRedisStore_WindowExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisStore(mr.Addr(), "", 0)
	ctx := context.Background()

	if _, err := store.Increment(ctx, "generic:u1", time.Minute); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if _, err := store.Increment(ctx, "generic:u1", time.Minute); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	// Past the interval the window must reset to a fresh count.
	mr.FastForward(61 * time.Second)

	count, err := store.Increment(ctx, "generic:u1", time.Minute)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected fresh window after expiry, got count %d", count)
	}
}

func TestRedisStore_KeysIsolated(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store := NewRedisStore(mr.Addr(), "", 0)
	ctx := context.Background()

	store.Increment(ctx, "generic:u1", time.Minute)
	store.Increment(ctx, "generic:u1", time.Minute)

	count, err := store.Increment(ctx, "generic:u2", time.Minute)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if count != 1 {
		t.Errorf("keys should be isolated, got count %d for u2", count)
	}
}

func TestRedisStore_FlagBot(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store := NewRedisStore(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := store.FlagBot(ctx, "botflag:1.2.3.4", time.Hour); err != nil {
		t.Fatalf("FlagBot failed: %v", err)
	}
	if !mr.Exists("admission:botflag:1.2.3.4") {
		t.Errorf("bot flag should be present in redis")
	}

	mr.FastForward(2 * time.Hour)
	if mr.Exists("admission:botflag:1.2.3.4") {
		t.Errorf("bot flag should expire")
	}
}

func TestRedisStore_Ping(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store := NewRedisStore(mr.Addr(), "", 0)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Errorf("Ping should fail after redis goes away")
	}
}
