package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sfhouse/intake/pkg/auth"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken(42, "desk@example.org", "staff", "access", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	claims, err := auth.Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Sub != 42 || claims.Email != "desk@example.org" || claims.Role != "staff" || claims.Scope != "access" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewAccessToken(1, "desk@example.org", "staff", "access", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	if _, err := auth.Parse(token, "other-secret"); err == nil {
		t.Error("expected rejection for wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := auth.NewAccessToken(1, "desk@example.org", "staff", "access", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	if _, err := auth.Parse(token, testSecret); err == nil {
		t.Error("expected rejection for expired token")
	}
}

func TestParseRejectsOtherSigningMethods(t *testing.T) {
	// A token signed with the same secret but a different HMAC variant
	// must not pass; only HS256 is accepted.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.Claims{
		Sub:   1,
		Email: "desk@example.org",
		Role:  "staff",
		Scope: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := auth.Parse(signed, testSecret); err == nil {
		t.Error("expected rejection for HS512-signed token")
	}
}
