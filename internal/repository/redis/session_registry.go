package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-accounts/internal/core/port"
)

const defaultSessionPrefix = "acct:session"

// SessionRegistry keeps an allow-list of issued token fingerprints in Redis.
// Each fingerprint maps to its subject and expires with the token; a
// per-subject set enables bulk revocation without scanning the keyspace.
type SessionRegistry struct {
	client *red.Client
	prefix string
}

// NewSessionRegistry constructs a Redis-backed session registry.
func NewSessionRegistry(client *red.Client, keyPrefix string) *SessionRegistry {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	return &SessionRegistry{client: client, prefix: prefix}
}

// Record stores the fingerprint until the token's own expiry and indexes it
// under the subject for bulk revocation.
func (s *SessionRegistry) Record(ctx context.Context, fingerprint string, subjectID string, expiresAt time.Time) error {
	if strings.TrimSpace(fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("subject id is required")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("expiry must be in the future")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.fingerprintKey(fingerprint), subjectID, ttl)
	pipe.SAdd(ctx, s.subjectKey(subjectID), fingerprint)
	// The subject index must outlive every token it references. NX seeds the
	// expiry, GT only ever extends it.
	pipe.ExpireNX(ctx, s.subjectKey(subjectID), ttl)
	pipe.ExpireGT(ctx, s.subjectKey(subjectID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record session: %w", err)
	}

	return nil
}

// IsActive reports whether the fingerprint is still registered. Expired and
// revoked fingerprints are indistinguishable: both are absent.
func (s *SessionRegistry) IsActive(ctx context.Context, fingerprint string) (bool, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return false, nil
	}

	count, err := s.client.Exists(ctx, s.fingerprintKey(fingerprint)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session: %w", err)
	}
	return count > 0, nil
}

// Revoke removes a single fingerprint from the registry.
func (s *SessionRegistry) Revoke(ctx context.Context, fingerprint string) error {
	if strings.TrimSpace(fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}

	subjectID, err := s.client.Get(ctx, s.fingerprintKey(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil
		}
		return fmt.Errorf("redis get session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.fingerprintKey(fingerprint))
	pipe.SRem(ctx, s.subjectKey(subjectID), fingerprint)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}

	return nil
}

// RevokeAll removes every fingerprint registered for the subject and returns
// how many live entries were dropped.
func (s *SessionRegistry) RevokeAll(ctx context.Context, subjectID string) (int, error) {
	if strings.TrimSpace(subjectID) == "" {
		return 0, fmt.Errorf("subject id is required")
	}

	fingerprints, err := s.client.SMembers(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list sessions: %w", err)
	}

	if len(fingerprints) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(fingerprints)+1)
	for _, fp := range fingerprints {
		keys = append(keys, s.fingerprintKey(fp))
	}

	revoked, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis revoke sessions: %w", err)
	}

	if err := s.client.Del(ctx, s.subjectKey(subjectID)).Err(); err != nil {
		return int(revoked), fmt.Errorf("redis clear session index: %w", err)
	}

	return int(revoked), nil
}

func (s *SessionRegistry) fingerprintKey(fingerprint string) string {
	return fmt.Sprintf("%s:fp:%s", s.prefix, fingerprint)
}

func (s *SessionRegistry) subjectKey(subjectID string) string {
	return fmt.Sprintf("%s:subject:%s", s.prefix, subjectID)
}

var _ port.SessionRegistry = (*SessionRegistry)(nil)
