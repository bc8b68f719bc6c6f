package infra

import (
	"context"
	"testing"
	"time"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	tok, err := svc.GenerateToken("u1", "john@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	got, err := svc.VerifyIDToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if got.UID != "u1" {
		t.Errorf("uid = %q", got.UID)
	}
	if got.Claims["role"] != "user" {
		t.Errorf("role = %v", got.Claims["role"])
	}
}

func TestJWTService_RejectsOtherSecret(t *testing.T) {
	tok, err := NewJWTService("a", time.Hour).GenerateToken("u1", "x@y.z", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTService("b", time.Hour).ValidateToken(tok); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := svc.GenerateToken("u1", "x@y.z", "user")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(tok); err == nil {
		t.Fatal("expected expiry error")
	}
}
