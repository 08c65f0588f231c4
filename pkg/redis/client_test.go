package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(raw), mr
}

func TestSetGetAndMiss(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	if err := client.Set(ctx, "sf:test", "value", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "sf:test")
	if err != nil || got != "value" {
		t.Fatalf("unexpected get result %q, %v", got, err)
	}
	if ttl := mr.TTL("sf:test"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}

	_, err = client.Get(ctx, "sf:absent")
	if !IsMiss(err) {
		t.Fatalf("expected miss, got %v", err)
	}
	if IsMiss(errors.New("boom")) {
		t.Fatal("arbitrary errors must not be treated as a miss")
	}
}

func TestMGetMarksMissingKeys(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	if err := mr.Set("sf:a", "1"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	values, found, err := client.MGet(ctx, "sf:a", "sf:b")
	if err != nil {
		t.Fatalf("mget failed: %v", err)
	}
	if len(values) != 2 || values[0] != "1" || !found[0] || found[1] {
		t.Fatalf("unexpected mget result values=%v found=%v", values, found)
	}
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	ok, err := client.SetNX(ctx, "sf:once", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, got %v %v", ok, err)
	}
	ok, err = client.SetNX(ctx, "sf:once", "second", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, got %v %v", ok, err)
	}
	if err := client.Del(ctx, "sf:once"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "sf:once"); !IsMiss(err) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "sf:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.ProductKey("abc"); got != "sf:product:abc" {
		t.Fatalf("unexpected product key %s", got)
	}
	if got := client.IdempotencyKey("", "id"); got != "sf:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error for uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on uninitialized client should be a no-op, got %v", err)
	}
}
