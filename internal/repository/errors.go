package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateIdentity indicates a unique constraint on username or email rejected the write.
	ErrDuplicateIdentity = errors.New("repository: duplicate identity")
)
