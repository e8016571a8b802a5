package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	acct := registerAlice(t, svc)
	if acct.ID == "" {
		t.Fatal("expected a generated account ID")
	}
	if acct.Role != RoleUser {
		t.Fatalf("expected default role %q, got %q", RoleUser, acct.Role)
	}
	if !acct.Active {
		t.Fatal("new accounts must start active")
	}
	if acct.PasswordHash != "" {
		t.Fatal("returned account must not carry the password digest")
	}
	if got := len(findEvents(t, svc, EventUserRegistration)); got != 1 {
		t.Fatalf("expected 1 user_registration event, got %d", got)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "ALICE",
		Email:    "other@example.com",
		Password: "Corr3ct-Horse!",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if svc.Metrics().Value(MetricRegistrationDuplicate) != 1 {
		t.Fatal("expected duplicate registration metric")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "bob",
		Email:    "Alice@Example.com",
		Password: "Corr3ct-Horse!",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	weak := []string{
		"alllowercase", // no upper, digit, special
		"ALLUPPER123!", // no lower
		"NoDigits!!",   // no digit
		"NoSpecial123", // no special
		"Ab1!",         // too short
	}
	for _, pwd := range weak {
		_, err := svc.Register(ctx, RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: pwd,
		})
		if !errors.Is(err, ErrPasswordPolicy) {
			t.Fatalf("password %q: expected ErrPasswordPolicy, got %v", pwd, err)
		}
	}
}

func TestRegisterInvalidRequest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []RegisterRequest{
		{Username: "", Email: "a@example.com", Password: "Corr3ct-Horse!"},
		{Username: "alice", Email: "", Password: "Corr3ct-Horse!"},
		{Username: "alice", Email: "not-an-email", Password: "Corr3ct-Horse!"},
	}
	for i, req := range cases {
		if _, err := svc.Register(ctx, req); !errors.Is(err, ErrRegistrationInvalid) {
			t.Fatalf("case %d: expected ErrRegistrationInvalid, got %v", i, err)
		}
	}

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Corr3ct-Horse!",
		Role:     "superuser",
	})
	if !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)

	if _, err := svc.Login(ctx, "alice", "Corr3ct-Horse!"); err != nil {
		t.Fatalf("Login after Register error: %v", err)
	}
}
