package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRateLimitStore_Defaults(t *testing.T) {
	s := NewRateLimitStore(nil, 0, 0)
	if s.limit != 100 {
		t.Fatalf("expected default limit 100, got %d", s.limit)
	}
	if s.window != time.Hour {
		t.Fatalf("expected default window 1h, got %v", s.window)
	}
}

func TestRateLimitStore_KeyWindowing(t *testing.T) {
	s := NewRateLimitStore(nil, 100, time.Hour)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	early := s.key("203.0.113.7", base.Add(time.Minute))
	late := s.key("203.0.113.7", base.Add(59*time.Minute))
	if early != late {
		t.Fatalf("same window produced different keys: %q vs %q", early, late)
	}

	next := s.key("203.0.113.7", base.Add(61*time.Minute))
	if next == early {
		t.Fatalf("next window reused the key %q", next)
	}

	other := s.key("198.51.100.9", base.Add(time.Minute))
	if other == early {
		t.Fatalf("different identifiers share the key %q", other)
	}
}

type fakeCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestRateLimitStore_Allow_EnforcesQuota(t *testing.T) {
	client := newFakeCounter()
	s := NewRateLimitStore(client, 3, time.Hour)

	for i := 0; i < 3; i++ {
		ok, err := s.Allow("203.0.113.7")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("request %d within quota was denied", i+1)
		}
	}

	ok, err := s.Allow("203.0.113.7")
	if err != nil {
		t.Fatalf("allow over quota: %v", err)
	}
	if ok {
		t.Fatal("request over quota was allowed")
	}

	// A different identifier keeps its own counter.
	ok, err = s.Allow("198.51.100.9")
	if err != nil || !ok {
		t.Fatalf("fresh identifier denied: ok=%v err=%v", ok, err)
	}

	if len(client.expires) != 2 {
		t.Fatalf("expected one expiry per key, got %v", client.expires)
	}
	for key, ttl := range client.expires {
		if ttl != time.Hour {
			t.Fatalf("key %s expires after %v, want %v", key, ttl, time.Hour)
		}
	}
}

func TestRateLimitStore_Allow_IncrError(t *testing.T) {
	client := newFakeCounter()
	client.incrErr = errors.New("connection refused")
	s := NewRateLimitStore(client, 3, time.Hour)

	ok, err := s.Allow("203.0.113.7")
	if err == nil {
		t.Fatal("expected an error from the failing counter")
	}
	if ok {
		t.Fatal("failing counter must not admit the request")
	}
}
