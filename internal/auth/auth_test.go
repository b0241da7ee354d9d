package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("KHATA_AUTH_SECRET", "unit-test-secret")
	ResetSecretForTests()

	token, err := GenerateToken("user-1", []string{"admin", "admin", " "}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("roles not deduped: %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id claim")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv("KHATA_AUTH_SECRET", "unit-test-secret")
	ResetSecretForTests()

	if _, err := ParseAndValidate(""); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := ParseAndValidate("not.a.jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Setenv("KHATA_AUTH_SECRET", "secret-a")
	ResetSecretForTests()
	token, err := GenerateToken("user-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv("KHATA_AUTH_SECRET", "secret-b")
	ResetSecretForTests()
	if _, err := ParseAndValidate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	t.Setenv("KHATA_AUTH_SECRET", "")
	ResetSecretForTests()
	if _, err := GenerateToken("user-3", nil, time.Minute); err == nil {
		t.Fatal("expected error without a configured secret")
	}
}

func TestSetSecretOverridesEnv(t *testing.T) {
	t.Setenv("KHATA_AUTH_SECRET", "")
	ResetSecretForTests()
	SetSecret("configured-secret")
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("user-4", nil, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseAndValidate(token); err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
}
