package services

import (
	"context"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
)

const bcryptCost = 12

// AdminAuthService exchanges the site owner's password for an admin token.
type AdminAuthService struct {
	passwordHash []byte
	jwt          *middleware.JWTAuth
}

// NewAdminAuthService takes the bcrypt hash from ADMIN_PASSWORD_HASH. An empty
// hash disables login.
func NewAdminAuthService(passwordHash string, jwt *middleware.JWTAuth) *AdminAuthService {
	return &AdminAuthService{passwordHash: []byte(passwordHash), jwt: jwt}
}

func (s *AdminAuthService) Enabled() bool { return len(s.passwordHash) > 0 }

func (s *AdminAuthService) Login(ctx context.Context, req models.AdminLoginRequest) (*models.AuthTokens, error) {
	if !s.Enabled() {
		return nil, &UnauthorizedError{Message: "Admin login is not configured"}
	}
	if req.Password == "" {
		return nil, &ValidationError{Message: "Password is required", Fields: map[string]string{"password": "Password is required"}}
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid password"}
	}

	token, err := s.jwt.GenerateAdminToken("owner")
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken: token,
		ExpiresIn:   int(s.jwt.TTL.Seconds()),
	}, nil
}

// HashPassword produces the value for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("password must contain uppercase, lowercase, and a digit")
	}
	return nil
}
