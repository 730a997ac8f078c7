package handlers

import (
	"log"

	"bunga/internal/middleware"
	"bunga/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the account back-office: listing users, approving
// them for purchases, and setting per-user price multipliers.
type AdminHandler struct {
	service *services.UserService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.UserService) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// RegisterRoutes registers the admin user routes. Mount them behind
// AuthRequired + AdminRequired.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Post("/:id/approve", h.HandleApproveUser)
	userRoutes.Patch("/:id/price-multiplier", h.HandleSetPriceMultiplier)
}

// HandleListUsers returns every account.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return respondData(c, fiber.StatusOK, users)
}

// HandleApproveUser clears an account for purchasing.
func (h *AdminHandler) HandleApproveUser(c *fiber.Ctx) error {
	user, err := h.service.ApproveUser(middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		log.Printf("Error approving user %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	user.Password = ""
	return respondData(c, fiber.StatusOK, user)
}

// SetMultiplierRequest represents the request body for a multiplier change.
type SetMultiplierRequest struct {
	Multiplier float64 `json:"multiplier"`
}

// HandleSetPriceMultiplier sets a user's price multiplier. Values outside
// [0.5, 20.0] (or NaN) are rejected and never persisted.
func (h *AdminHandler) HandleSetPriceMultiplier(c *fiber.Ctx) error {
	var req SetMultiplierRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	user, err := h.service.SetPriceMultiplier(middleware.CurrentUser(c), c.Params("id"), req.Multiplier)
	if err != nil {
		return respondError(c, err)
	}
	user.Password = ""
	return respondData(c, fiber.StatusOK, user)
}
