package handlers

import (
	"bunga/internal/apperr"
	"bunga/internal/middleware"
	"bunga/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes. All routes require authentication.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Post("/items/batch", h.HandleBatchAddItems)
	cartRoutes.Patch("/items/:id", h.HandleUpdateItemQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the caller's cart with prices adjusted through their
// multiplier, creating an empty cart on first use.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetOrCreateCart(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, cart)
}

// AddItemRequest represents the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID        string  `json:"product_id"`
	ProductVariantID *string `json:"product_variant_id"`
	Quantity         int     `json:"quantity"`
}

// HandleAddItem puts a product in the cart, setting (not incrementing) the
// quantity when the product is already there.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if req.ProductID == "" {
		return respondError(c, apperr.New(apperr.CodeValidation, "product_id is required"))
	}

	item, err := h.service.AddOrUpdateItem(middleware.CurrentUser(c), req.ProductID, req.ProductVariantID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, item)
}

// BatchAddRequest represents the request body for a batch add. Quantity
// applies to every product unless Quantities gives one value per product.
type BatchAddRequest struct {
	ProductIDs []string `json:"product_ids"`
	Quantity   int      `json:"quantity"`
	Quantities []int    `json:"quantities"`
}

// HandleBatchAddItems adds several products in one all-or-nothing batch.
func (h *CartHandler) HandleBatchAddItems(c *fiber.Ctx) error {
	var req BatchAddRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	quantities := req.Quantities
	if len(quantities) == 0 {
		quantity := req.Quantity
		if quantity < 1 {
			quantity = 1
		}
		quantities = []int{quantity}
	}

	items, err := h.service.BatchAddItems(middleware.CurrentUser(c), req.ProductIDs, quantities)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, items)
}

// UpdateQuantityRequest represents the request body for a quantity change.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateItemQuantity sets the quantity of an existing line item.
func (h *CartHandler) HandleUpdateItemQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	item, err := h.service.UpdateItemQuantity(middleware.CurrentUser(c), c.Params("id"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, item)
}

// HandleRemoveItem deletes a line item from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(middleware.CurrentUser(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// HandleClearCart removes every item from the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.ClearCart(middleware.CurrentUser(c)); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"cleared": true})
}
