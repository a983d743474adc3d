package domain

import "time"

// AccountRegisteredEvent represents the payload for accounts.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountUpdatedEvent represents the payload for accounts.account.updated messages.
type AccountUpdatedEvent struct {
	EventID       string
	AccountID     string
	ChangedFields []string
	EmailChanged  bool
	UpdatedAt     time.Time
	Metadata      map[string]any
}

// PasswordChangedEvent represents the payload for accounts.password.changed messages.
type PasswordChangedEvent struct {
	EventID         string
	AccountID       string
	ChangedAt       time.Time
	SessionsRevoked int
	Metadata        map[string]any
}

// PasswordResetRequestedEvent represents the payload for accounts.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID     string
	AccountID   string
	RequestedAt time.Time
	ExpiresAt   time.Time
	IPAddress   *string
	Metadata    map[string]any
}

// SessionsRevokedEvent represents the payload for accounts.sessions.revoked messages.
type SessionsRevokedEvent struct {
	EventID       string
	AccountID     string
	RevokedAt     time.Time
	Reason        string
	TokensRevoked int
	Metadata      map[string]any
}
