package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewAuthenticator([]byte("test-secret"), time.Hour)

	token, err := a.GenerateClientToken("client-42")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ClientID != "client-42" {
		t.Errorf("unexpected client ID: %s", claims.ClientID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	a := NewAuthenticator([]byte("test-secret"), time.Hour)
	b := NewAuthenticator([]byte("other-secret"), time.Hour)

	token, err := a.GenerateClientToken("client-42")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}

	if _, err := b.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	a := NewAuthenticator([]byte("test-secret"), time.Hour)
	if _, err := a.ValidateToken("not-a-token"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	a := NewAuthenticator([]byte("test-secret"), -time.Hour)

	token, err := a.GenerateClientToken("client-42")
	if err != nil {
		t.Fatalf("GenerateClientToken: %v", err)
	}

	if _, err := a.ValidateToken(token); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}
