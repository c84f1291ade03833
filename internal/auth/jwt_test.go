package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()

	token, err := GenerateJWT("secret", userID, tenantID, "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.TenantID != tenantID {
		t.Errorf("TenantID = %s, want %s", claims.TenantID, tenantID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
	if claims.Issuer != "phishsim" {
		t.Errorf("Issuer = %q, want phishsim", claims.Issuer)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), uuid.New(), "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), uuid.New(), "admin", time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := ParseJWT("secret", token); err == nil {
		t.Fatal("expired token was accepted")
	}
}
