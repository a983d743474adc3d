package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const strongTestPassword = "Sup3r!SecurePass#7890"

func testHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()

	hasher, err := security.NewPasswordHasher(security.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	return hasher
}

func testIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	issuer, err := security.NewTokenIssuer(security.TokenConfig{
		Issuer:        "accounts-test",
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	return issuer
}

type accountRepoStub struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	createErr error

	passwordUpdates map[string]string
}

func newAccountRepoStub(accounts ...domain.Account) *accountRepoStub {
	stub := &accountRepoStub{
		accounts:        make(map[string]domain.Account),
		passwordUpdates: make(map[string]string),
	}
	for _, account := range accounts {
		stub.accounts[account.ID] = account
	}
	return stub
}

func (s *accountRepoStub) Create(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repository.ErrDuplicateIdentity
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *accountRepoStub) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (s *accountRepoStub) GetByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Username == identifier || account.Email == identifier {
			copied := account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *accountRepoStub) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate, updatedAt time.Time) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if update.Email != nil {
		for otherID, other := range s.accounts {
			if otherID != id && other.Email == *update.Email {
				return nil, repository.ErrDuplicateIdentity
			}
		}
		account.Email = *update.Email
	}
	if update.FirstName != nil {
		val := *update.FirstName
		account.FirstName = &val
	}
	if update.LastName != nil {
		val := *update.LastName
		account.LastName = &val
	}
	account.UpdatedAt = updatedAt

	s.accounts[id] = account
	copied := account
	return &copied, nil
}

func (s *accountRepoStub) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = changedAt
	s.accounts[id] = account
	s.passwordUpdates[id] = passwordHash
	return nil
}

type registryStub struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newRegistryStub() *registryStub {
	return &registryStub{sessions: make(map[string]string)}
}

func (r *registryStub) Record(_ context.Context, fingerprint, subjectID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[fingerprint] = subjectID
	return nil
}

func (r *registryStub) IsActive(_ context.Context, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[fingerprint]
	return ok, nil
}

func (r *registryStub) Revoke(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, fingerprint)
	return nil
}

func (r *registryStub) RevokeAll(_ context.Context, subjectID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revoked := 0
	for fingerprint, subject := range r.sessions {
		if subject == subjectID {
			delete(r.sessions, fingerprint)
			revoked++
		}
	}
	return revoked, nil
}

func (r *registryStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type tokenRepoStub struct {
	mu     sync.Mutex
	tokens map[string]domain.PasswordResetToken
}

func newTokenRepoStub() *tokenRepoStub {
	return &tokenRepoStub{tokens: make(map[string]domain.PasswordResetToken)}
}

func (s *tokenRepoStub) CreatePasswordReset(_ context.Context, token domain.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = token
	return nil
}

func (s *tokenRepoStub) GetPasswordResetByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, token := range s.tokens {
		if token.TokenHash == hash {
			copied := token
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *tokenRepoStub) ConsumePasswordReset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	token.UsedAt = &now
	s.tokens[id] = token
	return nil
}

type publisherStub struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	updated    []domain.AccountUpdatedEvent
	password   []domain.PasswordChangedEvent
	resets     []domain.PasswordResetRequestedEvent
	revoked    []domain.SessionsRevokedEvent
	err        error
}

func (p *publisherStub) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return p.err
}

func (p *publisherStub) PublishAccountUpdated(_ context.Context, event domain.AccountUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, event)
	return p.err
}

func (p *publisherStub) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.password = append(p.password, event)
	return p.err
}

func (p *publisherStub) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, event)
	return p.err
}

func (p *publisherStub) PublishSessionsRevoked(_ context.Context, event domain.SessionsRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return p.err
}

func seedAccount(t *testing.T, hasher *security.PasswordHasher, id, username, email, password string) domain.Account {
	t.Helper()

	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	return domain.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
