package handlers

import (
	"log"

	"bunga/internal/middleware"
	"bunga/internal/models"
	"bunga/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. All routes require
// authentication; the status override additionally requires the ADMIN role.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:id/status", middleware.AdminRequired(), h.HandleSetOrderStatus)
}

// HandleGetOrders lists the caller's placed orders; admins see every order.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(middleware.CurrentUser(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, orders)
}

// HandleGetOrderByID returns a single order, owner or admin only.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, order)
}

// CheckoutRequest represents the request body for checkout.
type CheckoutRequest struct {
	DeliveryAddressID *string `json:"delivery_address_id"`
	BillingAddressID  *string `json:"billing_address_id"`
}

// HandleCheckout confirms the caller's cart into a PENDING order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	order, err := h.service.Checkout(middleware.CurrentUser(c), req.DeliveryAddressID, req.BillingAddressID)
	if err != nil {
		log.Printf("Error during checkout: %v", err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, order)
}

// CancelOrderRequest represents the request body for a cancel.
type CancelOrderRequest struct {
	ConvertToCart bool `json:"convert_to_cart"`
}

// HandleCancelOrder cancels a PENDING order, optionally reopening it as the
// caller's cart for further editing.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req CancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	order, err := h.service.CancelOrder(middleware.CurrentUser(c), c.Params("id"), req.ConvertToCart)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, order)
}

// SetStatusRequest represents the request body for the admin status override.
type SetStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// HandleSetOrderStatus is the admin-only direct status edit.
func (h *OrderHandler) HandleSetOrderStatus(c *fiber.Ctx) error {
	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	order, err := h.service.SetStatus(middleware.CurrentUser(c), c.Params("id"), req.Status)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, order)
}
