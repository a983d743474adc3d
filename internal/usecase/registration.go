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
	// ErrIdentityTaken indicates the username or email is already registered.
	ErrIdentityTaken = errors.New("username or email already exists")
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
	// ErrRegistrationInvalid indicates a missing or malformed registration field.
	ErrRegistrationInvalid = errors.New("invalid registration input")
)

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	accounts  port.AccountRepository
	hasher    port.PasswordHasher
	validator port.PasswordPolicyValidator
	publisher port.EventPublisher
	logger    *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	hasher port.PasswordHasher,
	validator port.PasswordPolicyValidator,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		accounts:  accounts,
		hasher:    hasher,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account. Uniqueness is settled by the storage layer:
// concurrent registrations of the same identity race at the unique
// constraint and every loser surfaces ErrIdentityTaken.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := NormalizeIdentifier(input.Email)

	if username == "" {
		return domain.Account{}, fmt.Errorf("%w: username is required", ErrRegistrationInvalid)
	}
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, fmt.Errorf("%w: a valid email is required", ErrRegistrationInvalid)
	}
	if input.Password == "" {
		return domain.Account{}, fmt.Errorf("%w: password is required", ErrRegistrationInvalid)
	}

	if err := s.validator.Validate(input.Password, username, email); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if first := strings.TrimSpace(input.FirstName); first != "" {
		account.FirstName = &first
	}
	if last := strings.TrimSpace(input.LastName); last != "" {
		account.LastName = &last
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			return domain.Account{}, ErrIdentityTaken
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	if s.publisher != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			RegisteredAt: now,
		}
		if err := s.publisher.PublishAccountRegistered(ctx, event); err != nil {
			s.logger.Warn("failed to publish account registered event",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return account.Sanitized(), nil
}
