package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const defaultResetTokenTTL = 30 * time.Minute

// ErrResetTokenInvalid indicates the reset token is unknown, expired, or already used.
var ErrResetTokenInvalid = errors.New("reset token invalid")

// PasswordResetService issues and redeems single-use password reset tokens.
type PasswordResetService struct {
	accounts  port.AccountRepository
	tokens    port.TokenRepository
	hasher    port.PasswordHasher
	validator port.PasswordPolicyValidator
	auth      *AuthService
	publisher port.EventPublisher
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(
	accounts port.AccountRepository,
	tokens port.TokenRepository,
	hasher port.PasswordHasher,
	validator port.PasswordPolicyValidator,
	auth *AuthService,
	publisher port.EventPublisher,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *PasswordResetService {
	if tokenTTL <= 0 {
		tokenTTL = defaultResetTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		accounts:  accounts,
		tokens:    tokens,
		hasher:    hasher,
		validator: validator,
		auth:      auth,
		publisher: publisher,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// RequestReset mints a reset token for the account behind the email. An
// unknown email produces no token and no error, so the endpoint cannot be
// used to enumerate accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string, ip *string) (string, time.Time, error) {
	email = NormalizeIdentifier(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", time.Time{}, fmt.Errorf("%w: a valid email is required", ErrRegistrationInvalid)
	}

	account, err := s.accounts.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, fmt.Errorf("lookup account: %w", err)
	}

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	record := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		TokenHash: security.Fingerprint(raw),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.tokens.CreatePasswordReset(ctx, record); err != nil {
		return "", time.Time{}, fmt.Errorf("store reset token: %w", err)
	}

	if s.publisher != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			RequestedAt: now,
			ExpiresAt:   expiresAt,
			IPAddress:   ip,
		}
		if err := s.publisher.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("failed to publish password reset requested event",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return raw, expiresAt, nil
}

// ConfirmReset redeems a reset token and installs the new password. The
// token is consumed exactly once and every session of the subject is
// revoked.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrResetTokenInvalid
	}

	record, err := s.tokens.GetPasswordResetByHash(ctx, security.Fingerprint(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	now := time.Now().UTC()
	if record.UsedAt != nil || record.IsExpired(now) {
		return ErrResetTokenInvalid
	}

	account, err := s.accounts.GetByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.validator.Validate(newPassword, account.Username, account.Email); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Consuming before the write guarantees single use even when two
	// confirmations race on the same token.
	if err := s.tokens.ConsumePasswordReset(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.auth.RevokeAllSessions(ctx, account.ID)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		event := domain.PasswordChangedEvent{
			EventID:         uuid.NewString(),
			AccountID:       account.ID,
			ChangedAt:       now,
			SessionsRevoked: revoked,
		}
		if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("failed to publish password changed event",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return nil
}
