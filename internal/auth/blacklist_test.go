package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	getErr  error
	setErr  error
}

type memEntry struct {
	value string
	ttl   time.Duration
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]memEntry)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	entry, ok := s.entries[key]
	return entry.value, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = memEntry{value: value, ttl: ttl}
	return nil
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		input  string
		want   time.Duration
		wantOK bool
	}{
		{"30s", 30 * time.Second, true},
		{"15m", 15 * time.Minute, true},
		{"2h", 2 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"garbage", 7 * 24 * time.Hour, false},
		{"", 7 * 24 * time.Hour, false},
		{"10", 7 * 24 * time.Hour, false},
		{"s10", 7 * 24 * time.Hour, false},
		{"-5m", 7 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseExpiry(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseExpiry(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBlacklistRevokeAndLookup(t *testing.T) {
	store := newMemStore()
	bl := NewBlacklist(store, "7d", zap.NewNop())
	ctx := context.Background()

	if bl.IsRevoked(ctx, "tok") {
		t.Fatal("fresh token reported revoked")
	}
	if !bl.Revoke(ctx, "tok") {
		t.Fatal("Revoke returned false with healthy store")
	}
	if !bl.IsRevoked(ctx, "tok") {
		t.Fatal("revoked token not reported revoked")
	}

	entry := store.entries["blacklist:tok"]
	if entry.ttl != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 7d default", entry.ttl)
	}
}

func TestBlacklistRevokeIdempotent(t *testing.T) {
	store := newMemStore()
	bl := NewBlacklist(store, "1h", zap.NewNop())
	ctx := context.Background()

	if !bl.Revoke(ctx, "tok") {
		t.Fatal("first revoke failed")
	}
	if !bl.Revoke(ctx, "tok") {
		t.Fatal("second revoke failed")
	}
	if !bl.IsRevoked(ctx, "tok") {
		t.Fatal("token not revoked after double revoke")
	}
	if len(store.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(store.entries))
	}
}

func TestBlacklistRevokeForRemainingLifetime(t *testing.T) {
	store := newMemStore()
	bl := NewBlacklist(store, "7d", zap.NewNop())

	if !bl.RevokeFor(context.Background(), "tok", 90*time.Second) {
		t.Fatal("RevokeFor failed")
	}
	if got := store.entries["blacklist:tok"].ttl; got != 90*time.Second {
		t.Errorf("ttl = %v, want 90s", got)
	}
}

func TestBlacklistFailOpen(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	bl := NewBlacklist(store, "7d", zap.NewNop())
	ctx := context.Background()

	if bl.IsRevoked(ctx, "tok") {
		t.Error("unreachable store must fail open on lookup")
	}
	if bl.Revoke(ctx, "tok") {
		t.Error("Revoke must report false when the store is unreachable")
	}
}

func TestBlacklistInvalidDefaultTTLFallsBack(t *testing.T) {
	store := newMemStore()
	bl := NewBlacklist(store, "not-a-duration", zap.NewNop())

	if !bl.Revoke(context.Background(), "tok") {
		t.Fatal("Revoke failed")
	}
	if got := store.entries["blacklist:tok"].ttl; got != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 7d fallback", got)
	}
}
