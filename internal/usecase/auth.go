package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	// Unknown identifier and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccessToken indicates the access token is malformed or its signature failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrSessionRevoked indicates a structurally valid token whose session is no longer registered.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrInvalidRefreshToken indicates the refresh token is malformed, forged, expired, or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService coordinates credential checks and the token lifecycle.
type AuthService struct {
	accounts  port.AccountRepository
	registry  port.SessionRegistry
	hasher    port.PasswordHasher
	issuer    *security.TokenIssuer
	dummyHash string
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance. A nil registry disables
// the second verification gate; tokens then pass on signature and expiry alone.
func NewAuthService(
	accounts port.AccountRepository,
	registry port.SessionRegistry,
	hasher port.PasswordHasher,
	issuer *security.TokenIssuer,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	// A real encoded hash, so verifying against it on an identifier miss
	// costs the same as checking a wrong password.
	dummyHash := ""
	if hasher != nil {
		dummyHash, _ = hasher.Hash("placeholder-credential")
	}

	return &AuthService{
		accounts:  accounts,
		registry:  registry,
		hasher:    hasher,
		issuer:    issuer,
		dummyHash: dummyHash,
		logger:    logger,
	}
}

// Login validates credentials and mints a token pair for the account.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.TokenPair, domain.Account, error) {
	identifier = NormalizeIdentifier(identifier)
	if identifier == "" {
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("identifier is required")
	}
	if password == "" {
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("password is required")
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Verify against the placeholder hash so response timing does
			// not reveal whether the identifier exists.
			s.hasher.Verify(password, s.dummyHash)
			return domain.TokenPair{}, domain.Account{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return domain.TokenPair{}, domain.Account{}, ErrInvalidCredentials
	}

	pair, err := s.IssueTokenPair(ctx, *account)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, err
	}

	return pair, account.Sanitized(), nil
}

// IssueTokenPair mints an access/refresh pair bound to the account's current
// identity and registers both fingerprints.
func (s *AuthService) IssueTokenPair(ctx context.Context, account domain.Account) (domain.TokenPair, error) {
	if account.ID == "" {
		return domain.TokenPair{}, fmt.Errorf("account id is required")
	}

	access, accessExpiry, err := s.issuer.IssueAccessToken(account.ID, account.Email)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExpiry, err := s.issuer.IssueRefreshToken(account.ID, account.Email)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if s.registry != nil {
		if err := s.registry.Record(ctx, security.Fingerprint(access), account.ID, accessExpiry); err != nil {
			return domain.TokenPair{}, fmt.Errorf("record access session: %w", err)
		}
		if err := s.registry.Record(ctx, security.Fingerprint(refresh), account.ID, refreshExpiry); err != nil {
			return domain.TokenPair{}, fmt.Errorf("record refresh session: %w", err)
		}
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccessToken checks signature and expiry, then consults the session
// registry. Only a token that passes both gates yields claims.
func (s *AuthService) VerifyAccessToken(ctx context.Context, raw string) (*security.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.issuer.ParseAccessToken(raw)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if s.registry != nil {
		active, err := s.registry.IsActive(ctx, security.Fingerprint(raw))
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !active {
			return nil, ErrSessionRevoked
		}
	}

	return claims, nil
}

// Refresh validates the presented refresh token, rotates it, and returns a
// fresh pair. The old refresh fingerprint is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (domain.TokenPair, domain.Account, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
	}

	claims, err := s.issuer.ParseRefreshToken(rawRefresh)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
	}

	fingerprint := security.Fingerprint(rawRefresh)
	if s.registry != nil {
		active, err := s.registry.IsActive(ctx, fingerprint)
		if err != nil {
			return domain.TokenPair{}, domain.Account{}, fmt.Errorf("check session: %w", err)
		}
		if !active {
			return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
		}
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	pair, err := s.IssueTokenPair(ctx, *account)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, err
	}

	if s.registry != nil {
		if err := s.registry.Revoke(ctx, fingerprint); err != nil {
			s.logger.Warn("failed to revoke rotated refresh token", zap.Error(err))
		}
	}

	return pair, account.Sanitized(), nil
}

// Logout revokes the fingerprints of the presented tokens. Unknown or
// already-revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, rawAccess, rawRefresh string) error {
	if s.registry == nil {
		return nil
	}

	for _, raw := range []string{rawAccess, rawRefresh} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := s.registry.Revoke(ctx, security.Fingerprint(raw)); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}

	return nil
}

// RevokeAllSessions drops every registered fingerprint for the subject and
// returns how many were removed.
func (s *AuthService) RevokeAllSessions(ctx context.Context, accountID string) (int, error) {
	if s.registry == nil {
		return 0, nil
	}

	revoked, err := s.registry.RevokeAll(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return revoked, nil
}

// NormalizeIdentifier lowercases identifiers that look like email addresses.
// Usernames keep their exact case; email comparison is case-insensitive
// everywhere, so writes and lookups agree by construction.
func NormalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
