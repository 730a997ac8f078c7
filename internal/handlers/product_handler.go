package handlers

import (
	"io"
	"log"

	"bunga/internal/apperr"
	"bunga/internal/middleware"
	"bunga/internal/models"
	"bunga/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the catalog reads. Mount them behind
// OptionalAuth so logged-in users see their adjusted prices.
func (h *ProductHandler) RegisterPublicRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:slug", h.HandleGetProductBySlug)
}

// RegisterAdminRoutes registers the catalog mutations. Mount them behind
// AuthRequired + AdminRequired.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
	productRoutes.Post("/:id/variants", h.HandleAddVariant)
	productRoutes.Post("/:id/images", h.HandleUploadImage)
	productRoutes.Delete("/:id/images", h.HandleDeleteImage)
}

// HandleGetProducts lists the catalog, price-adjusted for logged-in users.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetCatalog(middleware.CurrentUser(c))
	if err != nil {
		log.Printf("Error getting products: %v", err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, products)
}

// HandleGetProductBySlug returns a single product by its slug.
func (h *ProductHandler) HandleGetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.Params("slug"), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleCreateProduct creates a new catalog entry.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(product); err != nil {
		return respondValidation(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, product)
}

// HandleUpdateProduct replaces an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c, err)
	}
	product.ID = c.Params("id")
	if err := h.validate.Struct(product); err != nil {
		return respondValidation(c, err)
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// HandleAddVariant attaches a variant to a product.
func (h *ProductHandler) HandleAddVariant(c *fiber.Ctx) error {
	var variant models.ProductVariant
	if err := c.BodyParser(&variant); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(variant); err != nil {
		return respondValidation(c, err)
	}

	if err := h.service.AddVariant(c.Params("id"), &variant); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, variant)
}

// HandleUploadImage accepts a multipart image upload and attaches the stored
// URL to the product.
func (h *ProductHandler) HandleUploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, apperr.Wrap(apperr.CodeValidation, "an 'image' file field is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	product, err := h.service.AttachImage(c.Context(), c.Params("id"), fileHeader.Filename, data, contentType)
	if err != nil {
		log.Printf("Error uploading image for product %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, product)
}

// DeleteImageRequest represents the request body for an image delete.
type DeleteImageRequest struct {
	URL string `json:"url" validate:"required"`
}

// HandleDeleteImage detaches an image URL from the product.
func (h *ProductHandler) HandleDeleteImage(c *fiber.Ctx) error {
	var req DeleteImageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.service.RemoveImage(c.Context(), c.Params("id"), req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, product)
}
