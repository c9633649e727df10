package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newMiniredisStore(t)
	ctx := context.Background()

	want := State{Token: "tok", Username: "agent", CallerID: "+919876543210"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestRedisStoreClear(t *testing.T) {
	store := newMiniredisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, State{Token: "tok", Username: "agent"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != (State{}) {
		t.Fatalf("expected zero state after clear, got %+v", got)
	}
}

func TestRedisStoreLoadMissingKey(t *testing.T) {
	store := newMiniredisStore(t)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load of a missing key must not fail: %v", err)
	}
	if got != (State{}) {
		t.Fatalf("expected zero state, got %+v", got)
	}
}
