package middleware

import (
	"log"
	"strings"

	"bunga/internal/models"
	"bunga/internal/repositories"
	"bunga/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "current_user"

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"code":    "UNAUTHORIZED",
		"error":   message,
	})
}

// resolveUser validates the bearer token and loads the user row behind it.
// Role, approval and price multiplier are read fresh from storage on every
// request, never from token claims.
func resolveUser(c *fiber.Ctx, authService *services.AuthService, userRepo repositories.UserRepository) (*models.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return nil, nil
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, nil
	}
	user, err := userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuthRequired is a Fiber middleware that rejects requests without a valid
// JWT and stores the freshly loaded user in the request context.
func AuthRequired(authService *services.AuthService, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, authService, userRepo)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return unauthorized(c, "Invalid or expired token")
		}
		if user == nil {
			return unauthorized(c, "Authorization header with 'Bearer <token>' is required")
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// OptionalAuth stores the user when a valid token is present but lets
// anonymous requests through. Used by catalog reads so authenticated users
// see their adjusted prices.
func OptionalAuth(authService *services.AuthService, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, authService, userRepo)
		if err == nil && user != nil {
			c.Locals(userLocalKey, user)
		}
		return c.Next()
	}
}

// AdminRequired rejects requests whose user does not hold the ADMIN role.
// Must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"code":    "FORBIDDEN",
				"error":   "admin role required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthRequired or
// OptionalAuth, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
