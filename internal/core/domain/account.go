package domain

import "time"

// Account is the canonical representation of a registered account.
// PasswordHash is never serialized and must be cleared before an account
// leaves the service layer.
type Account struct {
	ID           string
	Username     string
	Email        string
	FirstName    *string
	LastName     *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the mutable profile fields. A nil field means
// "leave unchanged"; at least one field must be set for an update to apply.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// IsEmpty reports whether the update would change nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil
}

// Sanitized returns a copy safe to hand to transports: the stored
// password hash is cleared.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	return a
}
