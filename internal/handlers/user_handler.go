package handlers

import (
	"bunga/internal/middleware"
	"bunga/internal/models"
	"bunga/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles the authenticated user's own profile and addresses.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the profile routes. All require authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	meRoutes := router.Group("/me")
	meRoutes.Get("/", h.HandleGetProfile)
	meRoutes.Get("/addresses", h.HandleListAddresses)
	meRoutes.Post("/addresses", h.HandleAddAddress)
}

// HandleGetProfile returns the caller's account.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user := *middleware.CurrentUser(c)
	user.Password = ""
	return respondData(c, fiber.StatusOK, user)
}

// HandleListAddresses returns the caller's addresses, default first.
func (h *UserHandler) HandleListAddresses(c *fiber.Ctx) error {
	addresses, err := h.service.ListAddresses(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, addresses)
}

// HandleAddAddress stores a new address for the caller. Marking it default
// clears the previous default.
func (h *UserHandler) HandleAddAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(address); err != nil {
		return respondValidation(c, err)
	}

	if err := h.service.AddAddress(middleware.CurrentUser(c), &address); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, address)
}
