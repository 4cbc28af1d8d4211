package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) (*AuthManager, *memory.Store) {
	t.Helper()
	t.Setenv("SEED_MANAGER_PASSWORD", "manager-secret")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-secret")
	repo := memory.NewSeeded()
	return NewAuthManager(testSecret, time.Hour, repo), repo
}

func TestLoginIssuesTokenWithRole(t *testing.T) {
	auth, _ := newTestAuth(t)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{
		EmployeeID: "M417",
		Password:   "manager-secret",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != string(domain.RoleManager) {
		t.Fatalf("expected Manager role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("token did not parse: %v", err)
	}
	if actor.EmployeeID != "M417" || actor.Role != domain.RoleManager {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Login(context.Background(), domain.LoginRequest{
		EmployeeID: "M417",
		Password:   "wrong",
	})
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginRejectsUnknownEmployee(t *testing.T) {
	auth, _ := newTestAuth(t)

	_, err := auth.Login(context.Background(), domain.LoginRequest{
		EmployeeID: "X999",
		Password:   "whatever",
	})
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestThreeFailuresLockTheAccount(t *testing.T) {
	auth, repo := newTestAuth(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "wrong"}); !errors.Is(err, errInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
	}
	if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "wrong"}); !errors.Is(err, errAccountLocked) {
		t.Fatalf("expected lock on third failure, got %v", err)
	}

	employee, err := repo.GetEmployee(ctx, "C208")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !employee.Locked {
		t.Fatalf("expected account persisted as locked")
	}

	// Even the right password is refused while locked.
	if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "cashier-secret"}); !errors.Is(err, errAccountLocked) {
		t.Fatalf("expected locked account to refuse login, got %v", err)
	}

	if err := repo.SetEmployeeLocked(ctx, "C208", false); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	auth.ResetFailures("C208")

	if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "cashier-secret"}); err != nil {
		t.Fatalf("expected login after unlock, got %v", err)
	}
}

func TestSuccessfulLoginResetsFailureCount(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "wrong"}); !errors.Is(err, errInvalidCredentials) {
			t.Fatalf("round %d: expected invalid credentials, got %v", i, err)
		}
		if _, err := auth.Login(ctx, domain.LoginRequest{EmployeeID: "C208", Password: "cashier-secret"}); err != nil {
			t.Fatalf("round %d: expected success to reset the counter, got %v", i, err)
		}
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	auth, _ := newTestAuth(t)
	other := NewAuthManager("another-secret-another-secret-32", time.Hour, nil)

	token, err := other.sign("M417", string(domain.RoleManager), time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth, _ := newTestAuth(t)

	token, err := auth.sign("M417", string(domain.RoleManager), time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	auth, _ := newTestAuth(t)

	token, err := auth.sign("M417", "Superuser", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
