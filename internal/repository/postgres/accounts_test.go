package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

func TestAccountRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	createdAt := time.Now().UTC()
	account := domain.Account{
		ID:           "acct-1",
		Username:     "jsmith",
		Email:        "jsmith@example.com",
		PasswordHash: "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(
			account.ID,
			account.Username,
			account.Email,
			(*string)(nil),
			(*string)(nil),
			account.PasswordHash,
			account.CreatedAt,
			account.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	err = repo.Create(context.Background(), domain.Account{ID: "acct-1"})
	if !errors.Is(err, repository.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByIdentifierNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM accounts`).
		WithArgs("ghost", "ghost").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "first_name", "last_name", "password_hash", "created_at", "updated_at",
		}))

	_, err = repo.GetByIdentifier(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	createdAt := time.Now().UTC()
	first := "Jane"

	mock.ExpectQuery(`SELECT .+ FROM accounts`).
		WithArgs("acct-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "first_name", "last_name", "password_hash", "created_at", "updated_at",
		}).AddRow(
			"acct-1", "jsmith", "jsmith@example.com", first, nil, "hash", createdAt, createdAt,
		))

	account, err := repo.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if account.Username != "jsmith" {
		t.Fatalf("unexpected username: %s", account.Username)
	}
	if account.FirstName == nil || *account.FirstName != "Jane" {
		t.Fatalf("expected first name Jane, got %v", account.FirstName)
	}
	if account.LastName != nil {
		t.Fatalf("expected nil last name, got %v", *account.LastName)
	}
}

func TestAccountRepository_UpdateProfilePartial(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	updatedAt := time.Now().UTC()
	email := "new@example.com"

	mock.ExpectQuery(`UPDATE accounts SET .+ RETURNING`).
		WithArgs(updatedAt, email, "acct-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "email", "first_name", "last_name", "password_hash", "created_at", "updated_at",
		}).AddRow(
			"acct-1", "jsmith", email, nil, nil, "hash", updatedAt.Add(-time.Hour), updatedAt,
		))

	account, err := repo.UpdateProfile(context.Background(), "acct-1", domain.ProfileUpdate{Email: &email}, updatedAt)
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if account.Email != email {
		t.Fatalf("expected updated email, got %s", account.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpdateProfileEmailConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	email := "taken@example.com"
	mock.ExpectQuery(`UPDATE accounts SET .+ RETURNING`).
		WithArgs(pgxmock.AnyArg(), email, "acct-1").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err = repo.UpdateProfile(context.Background(), "acct-1", domain.ProfileUpdate{Email: &email}, time.Now().UTC())
	if !errors.Is(err, repository.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAccountRepository_UpdateProfileEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	if _, err := repo.UpdateProfile(context.Background(), "acct-1", domain.ProfileUpdate{}, time.Now().UTC()); err == nil {
		t.Fatal("expected error for empty update")
	}
}

func TestAccountRepository_UpdatePasswordMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAccountRepository(mock)

	mock.ExpectExec(`UPDATE accounts`).
		WithArgs("new-hash", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdatePassword(context.Background(), "ghost", "new-hash", time.Now().UTC())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenRepository_ConsumePasswordResetTwice(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectExec(`UPDATE password_reset_tokens`).
		WithArgs(pgxmock.AnyArg(), "reset-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE password_reset_tokens`).
		WithArgs(pgxmock.AnyArg(), "reset-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.ConsumePasswordReset(context.Background(), "reset-1"); err != nil {
		t.Fatalf("first consume returned error: %v", err)
	}
	if err := repo.ConsumePasswordReset(context.Background(), "reset-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second consume, got %v", err)
	}
}
