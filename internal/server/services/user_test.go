package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/server/auth"
)

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	db := newSQLMockDB(t)
	tokens := auth.NewTokenManager([]byte("test-secret"))
	return NewUserService(db, rm, tokens, testConfig())
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t, newFakeRepoManager())

	user, token, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" || token == "" {
		t.Fatalf("register must return a stored user and a session token")
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password must not be stored in plaintext")
	}

	_, loginToken, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if loginToken == "" {
		t.Fatalf("login must return a session token")
	}
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t, newFakeRepoManager())

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "empty username", username: "", email: "a@example.com", password: "password123"},
		{name: "empty email", username: "a", email: "", password: "password123"},
		{name: "empty password", username: "a", email: "a@example.com", password: ""},
		{name: "short password", username: "a", email: "a@example.com", password: "12345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			if !errors.Is(err, common.ErrorInvalidInput) {
				t.Fatalf("want common.ErrorInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegister_DuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t, newFakeRepoManager())

	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	// same username, different email
	_, _, err := svc.Register(ctx, "alice", "other@example.com", "password123")
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict for duplicate username, got %v", err)
	}

	// same email, different username
	_, _, err = svc.Register(ctx, "alice2", "alice@example.com", "password123")
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict for duplicate email, got %v", err)
	}
}

func TestLogin_WrongPasswordAndUnknownUserIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t, newFakeRepoManager())

	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, _, errWrongPassword := svc.Login(ctx, "alice", "not-the-password")
	_, _, errUnknownUser := svc.Login(ctx, "nobody", "whatever")

	if !errors.Is(errWrongPassword, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want common.ErrorUnauthorized, got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownUser, common.ErrorUnauthorized) {
		t.Fatalf("unknown user: want common.ErrorUnauthorized, got %v", errUnknownUser)
	}
	if errWrongPassword.Error() != errUnknownUser.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q",
			errWrongPassword.Error(), errUnknownUser.Error())
	}
}

func TestVerify_RoundTripClaims(t *testing.T) {
	ctx := context.Background()
	rm := newFakeRepoManager()
	svc := newUserService(t, rm)

	user, token, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	session, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if session.UserID != user.ID || session.Username != "alice" {
		t.Fatalf("claims mismatch: %+v", session)
	}
}

func TestVerify_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	db := newSQLMockDB(t)
	rm := newFakeRepoManager()

	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	tokens := auth.NewTokenManagerWithClock([]byte("test-secret"), func() time.Time { return clock })
	svc := NewUserService(db, rm, tokens, testConfig())

	_, token, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	clock = issued.Add(24*time.Hour - time.Second)
	if _, err := svc.Verify(ctx, token); err != nil {
		t.Fatalf("session must verify 1s before expiry, got %v", err)
	}

	clock = issued.Add(24*time.Hour + time.Second)
	_, err = svc.Verify(ctx, token)
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized past expiry, got %v", err)
	}
}

func TestVerify_GarbageCredential(t *testing.T) {
	svc := newUserService(t, newFakeRepoManager())

	_, err := svc.Verify(context.Background(), "not-a-token")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized, got %v", err)
	}
}
