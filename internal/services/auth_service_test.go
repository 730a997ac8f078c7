package services_test

import (
	"fmt"
	"testing"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
	"bunga/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	userRepo := repositories.NewMockUserRepository()
	authService := services.NewAuthService(userRepo, testJWTSecret)

	user := &models.User{
		Email:    "buyer@example.com",
		Password: "password123",
	}
	require.NoError(t, authService.RegisterUser(user))

	stored, err := userRepo.GetByEmail("buyer@example.com")
	require.NoError(t, err)

	// The stored password is hashed, never the plaintext.
	assert.NotEqual(t, "password123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))

	// New accounts default to an unapproved customer at base prices.
	assert.Equal(t, models.RoleCustomer, stored.Role)
	assert.False(t, stored.Approved)
	assert.Equal(t, 1.0, stored.PriceMultiplier)

	// Re-registering the same email conflicts.
	err = authService.RegisterUser(&models.User{Email: "buyer@example.com", Password: "other"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "email 'buyer@example.com' already registered")
}

func TestAuthService_LoginUser(t *testing.T) {
	userRepo := repositories.NewMockUserRepository()
	authService := services.NewAuthService(userRepo, testJWTSecret)

	user := &models.User{Email: "buyer@example.com", Password: "password123"}
	require.NoError(t, authService.RegisterUser(user))

	// Successful login returns a token carrying only identity claims.
	token, err := authService.LoginUser("buyer@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])
	// Role and approval are read from the database per request, never trusted
	// from the token.
	assert.NotContains(t, claims, "role")
	assert.NotContains(t, claims, "approved")

	// Wrong password.
	_, err = authService.LoginUser("buyer@example.com", "wrongpassword")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")

	// Unknown email returns the same generic message.
	_, err = authService.LoginUser("nobody@example.com", "password123")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(repositories.NewMockUserRepository(), testJWTSecret)

	// Valid token.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"email":   "buyer@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	validTokenString, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	claims, err := authService.ValidateToken(validTokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])

	// Garbage token.
	_, err = authService.ValidateToken("invalid.token.string")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	// Token signed with a different secret.
	foreign, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(foreign)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	// Expired token.
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredTokenString, err := expiredToken.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = authService.ValidateToken(expiredTokenString)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}
