package port

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// TokenRepository manages password reset token records.
type TokenRepository interface {
	CreatePasswordReset(ctx context.Context, token domain.PasswordResetToken) error
	GetPasswordResetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error)
	ConsumePasswordReset(ctx context.Context, id string) error
}
