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
	"github.com/arklim/social-platform-accounts/internal/repository"
)

var (
	// ErrAccountNotFound covers both a missing account and an ownership
	// mismatch, so callers cannot probe for foreign account ids.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmptyUpdate indicates a profile update with no fields to apply.
	ErrEmptyUpdate = errors.New("no fields to update")
	// ErrCurrentPasswordInvalid indicates the presented current password is wrong.
	ErrCurrentPasswordInvalid = errors.New("current password is invalid")
)

const (
	revokeReasonPasswordChanged = "password_changed"
	revokeReasonEmailChanged    = "email_changed"
)

// AccountService serves profile reads and mutations for the owning subject.
type AccountService struct {
	accounts  port.AccountRepository
	hasher    port.PasswordHasher
	validator port.PasswordPolicyValidator
	auth      *AuthService
	publisher port.EventPublisher
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(
	accounts port.AccountRepository,
	hasher port.PasswordHasher,
	validator port.PasswordPolicyValidator,
	auth *AuthService,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts:  accounts,
		hasher:    hasher,
		validator: validator,
		auth:      auth,
		publisher: publisher,
		logger:    logger,
	}
}

// GetProfile returns the account when the requester owns it. Any other
// combination reports ErrAccountNotFound.
func (s *AccountService) GetProfile(ctx context.Context, requesterID, accountID string) (domain.Account, error) {
	if requesterID == "" || requesterID != accountID {
		return domain.Account{}, ErrAccountNotFound
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	return account.Sanitized(), nil
}

// ProfileUpdateResult carries the updated account and, when the email
// changed, the replacement token pair bound to the new identity.
type ProfileUpdateResult struct {
	Account   domain.Account
	NewTokens *domain.TokenPair
}

// UpdateProfile applies a partial profile update for the owning subject.
// Changing the email revokes every outstanding session and mints a fresh
// token pair carrying the new address.
func (s *AccountService) UpdateProfile(ctx context.Context, requesterID, accountID string, update domain.ProfileUpdate) (ProfileUpdateResult, error) {
	if requesterID == "" || requesterID != accountID {
		return ProfileUpdateResult{}, ErrAccountNotFound
	}
	if update.IsEmpty() {
		return ProfileUpdateResult{}, ErrEmptyUpdate
	}

	current, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProfileUpdateResult{}, ErrAccountNotFound
		}
		return ProfileUpdateResult{}, fmt.Errorf("lookup account: %w", err)
	}

	emailChanged := false
	if update.Email != nil {
		normalized := NormalizeIdentifier(*update.Email)
		if normalized == "" || !strings.Contains(normalized, "@") {
			return ProfileUpdateResult{}, fmt.Errorf("%w: a valid email is required", ErrRegistrationInvalid)
		}
		if normalized == current.Email {
			update.Email = nil
		} else {
			update.Email = &normalized
			emailChanged = true
		}
	}
	if update.IsEmpty() {
		return ProfileUpdateResult{}, ErrEmptyUpdate
	}

	updated, err := s.accounts.UpdateProfile(ctx, accountID, update, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ProfileUpdateResult{}, ErrAccountNotFound
		case errors.Is(err, repository.ErrDuplicateIdentity):
			return ProfileUpdateResult{}, ErrIdentityTaken
		default:
			return ProfileUpdateResult{}, fmt.Errorf("update profile: %w", err)
		}
	}

	result := ProfileUpdateResult{Account: updated.Sanitized()}

	if emailChanged {
		revoked, err := s.auth.RevokeAllSessions(ctx, accountID)
		if err != nil {
			return ProfileUpdateResult{}, err
		}
		s.publishSessionsRevoked(ctx, accountID, revokeReasonEmailChanged, revoked)

		pair, err := s.auth.IssueTokenPair(ctx, *updated)
		if err != nil {
			return ProfileUpdateResult{}, err
		}
		result.NewTokens = &pair
	}

	s.publishAccountUpdated(ctx, accountID, update, emailChanged)

	return result, nil
}

// ChangePassword verifies the current password, applies the policy to the
// replacement, stores the new hash, and revokes every outstanding session
// for the subject including the one that authorized this call.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return fmt.Errorf("%w: current password is required", ErrCurrentPasswordInvalid)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return ErrCurrentPasswordInvalid
	}

	if newPassword == currentPassword {
		return fmt.Errorf("%w: new password must differ from the current one", ErrPasswordPolicyViolation)
	}
	if err := s.validator.Validate(newPassword, account.Username, account.Email); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC()
	if err := s.accounts.UpdatePassword(ctx, accountID, newHash, changedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.auth.RevokeAllSessions(ctx, accountID)
	if err != nil {
		return err
	}
	s.publishSessionsRevoked(ctx, accountID, revokeReasonPasswordChanged, revoked)

	if s.publisher != nil {
		event := domain.PasswordChangedEvent{
			EventID:         uuid.NewString(),
			AccountID:       accountID,
			ChangedAt:       changedAt,
			SessionsRevoked: revoked,
		}
		if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Warn("failed to publish password changed event",
				zap.String("account_id", accountID), zap.Error(err))
		}
	}

	return nil
}

func (s *AccountService) publishAccountUpdated(ctx context.Context, accountID string, update domain.ProfileUpdate, emailChanged bool) {
	if s.publisher == nil {
		return
	}

	fields := make([]string, 0, 3)
	if update.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if update.LastName != nil {
		fields = append(fields, "last_name")
	}
	if update.Email != nil {
		fields = append(fields, "email")
	}

	event := domain.AccountUpdatedEvent{
		EventID:       uuid.NewString(),
		AccountID:     accountID,
		ChangedFields: fields,
		EmailChanged:  emailChanged,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.publisher.PublishAccountUpdated(ctx, event); err != nil {
		s.logger.Warn("failed to publish account updated event",
			zap.String("account_id", accountID), zap.Error(err))
	}
}

func (s *AccountService) publishSessionsRevoked(ctx context.Context, accountID, reason string, revoked int) {
	if s.publisher == nil || revoked == 0 {
		return
	}

	event := domain.SessionsRevokedEvent{
		EventID:       uuid.NewString(),
		AccountID:     accountID,
		RevokedAt:     time.Now().UTC(),
		Reason:        reason,
		TokensRevoked: revoked,
	}
	if err := s.publisher.PublishSessionsRevoked(ctx, event); err != nil {
		s.logger.Warn("failed to publish sessions revoked event",
			zap.String("account_id", accountID), zap.Error(err))
	}
}
