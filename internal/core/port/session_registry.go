package port

import (
	"context"
	"time"
)

// SessionRegistry tracks the fingerprints of issued tokens so that a valid
// signature alone is not enough to pass verification. Absence of a
// fingerprint means the session is inactive.
type SessionRegistry interface {
	Record(ctx context.Context, fingerprint string, subjectID string, expiresAt time.Time) error
	IsActive(ctx context.Context, fingerprint string) (bool, error)
	Revoke(ctx context.Context, fingerprint string) error
	RevokeAll(ctx context.Context, subjectID string) (int, error)
}
