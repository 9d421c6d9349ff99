package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
)

func TestAdminAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	jwtAuth := middleware.NewJWTAuth("secret", time.Hour)
	svc := NewAdminAuthService(string(hash), jwtAuth)

	tokens, err := svc.Login(context.Background(), models.AdminLoginRequest{Password: "Sup3rSecret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", tokens.ExpiresIn)
	}
	if _, err := jwtAuth.ParseAdminToken(tokens.AccessToken); err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	_, err = svc.Login(context.Background(), models.AdminLoginRequest{Password: "wrong"})
	var ue *UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestAdminAuthService_NotConfigured(t *testing.T) {
	svc := NewAdminAuthService("", middleware.NewJWTAuth("secret", time.Hour))

	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Password: "anything"})
	var ue *UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short1A"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if _, err := HashPassword("alllowercase1"); err == nil {
		t.Fatal("expected password without uppercase to be rejected")
	}

	hash, err := HashPassword("Portfolio2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("Portfolio2024")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}
