package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Parse failures are reported with distinct sentinels so callers can log the
// precise cause while presenting a uniform unauthorized response upstream.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// TokenConfig holds the signing material for both token families. The access
// and refresh secrets are independent; a token signed with one can never pass
// verification against the other.
type TokenConfig struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Validate rejects configurations that would weaken the two-secret scheme.
func (c TokenConfig) Validate() error {
	if c.AccessSecret == "" {
		return fmt.Errorf("jwt: access secret is required")
	}
	if c.RefreshSecret == "" {
		return fmt.Errorf("jwt: refresh secret is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return fmt.Errorf("jwt: access and refresh secrets must differ")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("jwt: access ttl must be positive")
	}
	if c.RefreshTTL <= 0 {
		return fmt.Errorf("jwt: refresh ttl must be positive")
	}
	return nil
}

// Claims carries the account identity embedded in issued tokens.
// Subject holds the account ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 tokens for both families.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer validates the configuration and builds an issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}, nil
}

// AccessTTL returns the configured access token lifetime.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

// IssueAccessToken signs a short-lived token with the access secret.
func (i *TokenIssuer) IssueAccessToken(accountID, email string) (string, time.Time, error) {
	return i.issue(accountID, email, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

// IssueRefreshToken signs a long-lived token with the refresh secret.
func (i *TokenIssuer) IssueRefreshToken(accountID, email string) (string, time.Time, error) {
	return i.issue(accountID, email, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

// ParseAccessToken verifies a token against the access secret.
func (i *TokenIssuer) ParseAccessToken(raw string) (*Claims, error) {
	return i.parse(raw, i.cfg.AccessSecret)
}

// ParseRefreshToken verifies a token against the refresh secret.
func (i *TokenIssuer) ParseRefreshToken(raw string) (*Claims, error) {
	return i.parse(raw, i.cfg.RefreshSecret)
}

func (i *TokenIssuer) issue(accountID, email, secret string, ttl time.Duration) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) parse(raw, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("parse token: %w", err)
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}
