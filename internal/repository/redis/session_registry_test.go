package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestSessionRegistry_RecordAndIsActive(t *testing.T) {
	client, server := newTestRedis(t)
	registry := NewSessionRegistry(client, "")

	ctx := context.Background()
	expiresAt := time.Now().Add(15 * time.Minute)

	if err := registry.Record(ctx, "fp-1", "acct-1", expiresAt); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	active, err := registry.IsActive(ctx, "fp-1")
	if err != nil {
		t.Fatalf("IsActive returned error: %v", err)
	}
	if !active {
		t.Fatal("expected recorded fingerprint to be active")
	}

	ttl := server.TTL("acct:session:fp:fp-1")
	if ttl <= 0 || ttl > 15*time.Minute {
		t.Fatalf("expected ttl within (0, 15m], got %v", ttl)
	}
}

func TestSessionRegistry_UnknownFingerprintInactive(t *testing.T) {
	client, _ := newTestRedis(t)
	registry := NewSessionRegistry(client, "")

	active, err := registry.IsActive(context.Background(), "never-recorded")
	if err != nil {
		t.Fatalf("IsActive returned error: %v", err)
	}
	if active {
		t.Fatal("expected unknown fingerprint to be inactive")
	}
}

func TestSessionRegistry_ExpiredFingerprintInactive(t *testing.T) {
	client, server := newTestRedis(t)
	registry := NewSessionRegistry(client, "")

	ctx := context.Background()
	if err := registry.Record(ctx, "fp-1", "acct-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	active, err := registry.IsActive(ctx, "fp-1")
	if err != nil {
		t.Fatalf("IsActive returned error: %v", err)
	}
	if active {
		t.Fatal("expected expired fingerprint to be inactive")
	}
}

func TestSessionRegistry_Revoke(t *testing.T) {
	client, _ := newTestRedis(t)
	registry := NewSessionRegistry(client, "")

	ctx := context.Background()
	if err := registry.Record(ctx, "fp-1", "acct-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if err := registry.Revoke(ctx, "fp-1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	active, err := registry.IsActive(ctx, "fp-1")
	if err != nil {
		t.Fatalf("IsActive returned error: %v", err)
	}
	if active {
		t.Fatal("expected revoked fingerprint to be inactive")
	}

	// Revoking an absent fingerprint is a no-op.
	if err := registry.Revoke(ctx, "fp-1"); err != nil {
		t.Fatalf("second Revoke returned error: %v", err)
	}
}

func TestSessionRegistry_RevokeAll(t *testing.T) {
	client, _ := newTestRedis(t)
	registry := NewSessionRegistry(client, "")

	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	for _, fp := range []string{"fp-1", "fp-2", "fp-3"} {
		if err := registry.Record(ctx, fp, "acct-1", expiresAt); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if err := registry.Record(ctx, "fp-other", "acct-2", expiresAt); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	revoked, err := registry.RevokeAll(ctx, "acct-1")
	if err != nil {
		t.Fatalf("RevokeAll returned error: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", revoked)
	}

	for _, fp := range []string{"fp-1", "fp-2", "fp-3"} {
		active, err := registry.IsActive(ctx, fp)
		if err != nil {
			t.Fatalf("IsActive returned error: %v", err)
		}
		if active {
			t.Fatalf("expected %s to be inactive after RevokeAll", fp)
		}
	}

	active, err := registry.IsActive(ctx, "fp-other")
	if err != nil {
		t.Fatalf("IsActive returned error: %v", err)
	}
	if !active {
		t.Fatal("expected other subject's session to survive RevokeAll")
	}

	revoked, err = registry.RevokeAll(ctx, "acct-1")
	if err != nil {
		t.Fatalf("second RevokeAll returned error: %v", err)
	}
	if revoked != 0 {
		t.Fatalf("expected 0 revoked sessions on second call, got %d", revoked)
	}
}
