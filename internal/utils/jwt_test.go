package utils

import (
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWTUtil("test-secret", time.Hour, 24*time.Hour)

	token, err := j.GenerateToken(42, "openid-1", "13800000000")
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}

	claims, err := j.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error = %v", err)
	}
	if claims.UserID != 42 || claims.OpenID != "openid-1" || claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != tokenIssuer {
		t.Fatalf("Issuer = %q", claims.Issuer)
	}
}

func TestJWTRefreshType(t *testing.T) {
	j := NewJWTUtil("test-secret", time.Hour, 24*time.Hour)

	token, err := j.GenerateRefreshToken(7, "openid-7")
	if err != nil {
		t.Fatalf("GenerateRefreshToken error = %v", err)
	}
	claims, err := j.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error = %v", err)
	}
	if claims.Type != TokenTypeRefresh {
		t.Fatalf("Type = %q, want %q", claims.Type, TokenTypeRefresh)
	}
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	token, _ := NewJWTUtil("a", time.Hour, time.Hour).GenerateToken(1, "o", "")
	if _, err := NewJWTUtil("b", time.Hour, time.Hour).ParseToken(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestJWTExpired(t *testing.T) {
	j := NewJWTUtil("s", -time.Minute, time.Hour)
	token, _ := j.GenerateToken(1, "o", "")
	_, err := j.ParseToken(token)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("error = %v, want expired", err)
	}
}

func TestSecretHash(t *testing.T) {
	hash, err := HashSecret("admin-token", 4)
	if err != nil {
		t.Fatalf("HashSecret error = %v", err)
	}
	if err := CompareSecret(hash, "admin-token"); err != nil {
		t.Fatalf("CompareSecret error = %v", err)
	}
	if err := CompareSecret(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
	if HashToken("x") == HashToken("y") {
		t.Fatal("HashToken collision")
	}
}

func TestJWTUniquePerIssue(t *testing.T) {
	j := NewJWTUtil("s", time.Hour, time.Hour)
	a, _ := j.GenerateRefreshToken(1, "o")
	b, _ := j.GenerateRefreshToken(1, "o")
	if a == b {
		t.Fatal("tokens issued back to back must differ")
	}
	if got := j.GetAccessTokenTTL(); got != 3600 {
		t.Fatalf("GetAccessTokenTTL = %d", got)
	}
}
