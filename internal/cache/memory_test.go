package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	if _, err := p.Get(ctx, "absent"); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := p.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q", got)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := p.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("deleted key should miss, got %v", err)
	}
}

func TestMemoryProviderExpiry(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	if err := p.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := p.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("expired key should miss, got %v", err)
	}
}

func TestMemoryProviderCopiesValues(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	value := []byte("original")
	if err := p.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value was aliased: %q", got)
	}
	got[0] = 'Y'

	again, err := p.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("returned value was aliased: %q", again)
	}
}

func TestNoopProvider(t *testing.T) {
	p := NoopProvider{}
	ctx := context.Background()

	if err := p.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := p.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("noop should always miss, got %v", err)
	}
}
