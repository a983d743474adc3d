package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
)

func newAccountServiceFixture(t *testing.T, accounts ...domain.Account) (*AccountService, *AuthService, *accountRepoStub, *registryStub, *publisherStub) {
	t.Helper()

	hasher := testHasher(t)
	repo := newAccountRepoStub(accounts...)
	registry := newRegistryStub()
	publisher := &publisherStub{}
	auth := NewAuthService(repo, registry, hasher, testIssuer(t), nil)
	service := NewAccountService(repo, hasher, security.DefaultPasswordValidator(), auth, publisher, nil)
	return service, auth, repo, registry, publisher
}

func TestAccountServiceGetProfileOwn(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, account)

	got, err := service.GetProfile(context.Background(), "acct-1", "acct-1")
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if got.Username != "jsmith" {
		t.Fatalf("unexpected username: %s", got.Username)
	}
	if got.PasswordHash != "" {
		t.Fatal("expected password hash to be cleared")
	}
}

func TestAccountServiceGetProfileForeignIsNotFound(t *testing.T) {
	hasher := testHasher(t)
	mine := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	other := seedAccount(t, hasher, "acct-2", "other", "other@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, mine, other)

	// The target exists; ownership still reports not found, never forbidden.
	if _, err := service.GetProfile(context.Background(), "acct-1", "acct-2"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountServiceUpdateProfileNames(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, auth, _, _, publisher := newAccountServiceFixture(t, account)

	pair, _, err := auth.Login(context.Background(), "jsmith", strongTestPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	first := "Jane"
	result, err := service.UpdateProfile(context.Background(), "acct-1", "acct-1", domain.ProfileUpdate{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if result.NewTokens != nil {
		t.Fatal("expected no token rotation for a name-only update")
	}
	if result.Account.FirstName == nil || *result.Account.FirstName != "Jane" {
		t.Fatalf("expected updated first name, got %v", result.Account.FirstName)
	}

	// Existing sessions survive a name-only update.
	if _, err := auth.VerifyAccessToken(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("expected session to remain active, got %v", err)
	}

	if len(publisher.updated) != 1 {
		t.Fatalf("expected 1 updated event, got %d", len(publisher.updated))
	}
	if publisher.updated[0].EmailChanged {
		t.Fatal("expected EmailChanged to be false")
	}
}

func TestAccountServiceUpdateProfileEmailRotatesSessions(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, auth, _, _, publisher := newAccountServiceFixture(t, account)

	pair, _, err := auth.Login(context.Background(), "jsmith", strongTestPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	email := "Fresh@Example.com"
	result, err := service.UpdateProfile(context.Background(), "acct-1", "acct-1", domain.ProfileUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if result.Account.Email != "fresh@example.com" {
		t.Fatalf("expected normalized email, got %s", result.Account.Email)
	}
	if result.NewTokens == nil {
		t.Fatal("expected fresh token pair after email change")
	}

	// The pre-change token was revoked together with every other session.
	if _, err := auth.VerifyAccessToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected old session to be revoked, got %v", err)
	}

	claims, err := auth.VerifyAccessToken(context.Background(), result.NewTokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken on fresh pair returned error: %v", err)
	}
	if claims.Email != "fresh@example.com" {
		t.Fatalf("expected new token to carry new email, got %s", claims.Email)
	}

	if len(publisher.revoked) != 1 {
		t.Fatalf("expected 1 sessions revoked event, got %d", len(publisher.revoked))
	}
}

func TestAccountServiceUpdateProfileSameEmailIsEmpty(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, account)

	email := "JSmith@Example.com"
	if _, err := service.UpdateProfile(context.Background(), "acct-1", "acct-1", domain.ProfileUpdate{Email: &email}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate for unchanged email, got %v", err)
	}
}

func TestAccountServiceUpdateProfileEmailConflict(t *testing.T) {
	hasher := testHasher(t)
	mine := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	other := seedAccount(t, hasher, "acct-2", "other", "taken@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, mine, other)

	email := "taken@example.com"
	if _, err := service.UpdateProfile(context.Background(), "acct-1", "acct-1", domain.ProfileUpdate{Email: &email}); !errors.Is(err, ErrIdentityTaken) {
		t.Fatalf("expected ErrIdentityTaken, got %v", err)
	}
}

func TestAccountServiceUpdateProfileEmpty(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, account)

	if _, err := service.UpdateProfile(context.Background(), "acct-1", "acct-1", domain.ProfileUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
}

func TestAccountServiceChangePasswordSuccess(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, auth, repo, registry, publisher := newAccountServiceFixture(t, account)

	pair, _, err := auth.Login(context.Background(), "jsmith", strongTestPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	const newPassword = "An0ther!Secure#Pass42"
	if err := service.ChangePassword(context.Background(), "acct-1", strongTestPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	newHash := repo.passwordUpdates["acct-1"]
	if newHash == "" {
		t.Fatal("expected UpdatePassword to be called")
	}
	if !hasher.Verify(newPassword, newHash) {
		t.Fatal("expected stored hash to match new password")
	}
	if hasher.Verify(strongTestPassword, newHash) {
		t.Fatal("expected old password to stop verifying")
	}

	// Every session is revoked, including the one that made the call.
	if registry.count() != 0 {
		t.Fatalf("expected empty registry, got %d entries", registry.count())
	}
	if _, err := auth.VerifyAccessToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}

	if len(publisher.password) != 1 {
		t.Fatalf("expected 1 password changed event, got %d", len(publisher.password))
	}
	if len(publisher.revoked) != 1 {
		t.Fatalf("expected 1 sessions revoked event, got %d", len(publisher.revoked))
	}
}

func TestAccountServiceChangePasswordWrongCurrent(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, repo, _, _ := newAccountServiceFixture(t, account)

	err := service.ChangePassword(context.Background(), "acct-1", "Wrong-Current-1", "An0ther!Secure#Pass42")
	if !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected ErrCurrentPasswordInvalid, got %v", err)
	}
	if len(repo.passwordUpdates) != 0 {
		t.Fatal("expected password to remain unchanged")
	}
}

func TestAccountServiceChangePasswordSameAsCurrent(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, _, _, _ := newAccountServiceFixture(t, account)

	err := service.ChangePassword(context.Background(), "acct-1", strongTestPassword, strongTestPassword)
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestAccountServiceChangePasswordPolicyViolation(t *testing.T) {
	hasher := testHasher(t)
	account := seedAccount(t, hasher, "acct-1", "jsmith", "jsmith@example.com", strongTestPassword)
	service, _, repo, _, _ := newAccountServiceFixture(t, account)

	err := service.ChangePassword(context.Background(), "acct-1", strongTestPassword, "short1")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
	if len(repo.passwordUpdates) != 0 {
		t.Fatal("expected password to remain unchanged")
	}
}
