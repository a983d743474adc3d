package port

// PasswordHasher hashes and verifies secrets using the configured algorithm.
// Verify must treat a malformed stored hash as a mismatch, never a panic.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) bool
}

// PasswordPolicyValidator enforces password strength requirements.
type PasswordPolicyValidator interface {
	Validate(password string, userInputs ...string) error
}
