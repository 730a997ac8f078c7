package services

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"bunga/internal/models"
	"bunga/internal/repositories"

	"github.com/google/uuid"
)

// BlobStore is the object storage used for product images.
type BlobStore interface {
	Upload(ctx context.Context, pathname string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
	blob BlobStore
}

// NewProductService creates a new ProductService. blob may be nil when image
// uploads are not configured.
func NewProductService(repo repositories.ProductRepository, blob BlobStore) *ProductService {
	return &ProductService{
		repo: repo,
		blob: blob,
	}
}

// slugify derives a URL slug from a product name.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
}

// GetCatalog retrieves all products. When a user is given, product and
// variant prices are adjusted through the user's multiplier; market prices
// stay nil either way.
func (s *ProductService) GetCatalog(user *models.User) ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	if user == nil {
		return products, nil
	}
	for i := range products {
		adjustProductPrices(&products[i], user.PriceMultiplier)
	}
	return products, nil
}

// GetProductBySlug retrieves a single product, price-adjusted when a user is given.
func (s *ProductService) GetProductBySlug(slug string, user *models.User) (*models.Product, error) {
	product, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if user != nil {
		adjustProductPrices(product, user.PriceMultiplier)
	}
	return product, nil
}

func adjustProductPrices(product *models.Product, multiplier float64) {
	product.Price = AdjustPrice(product.Price, multiplier)
	for i := range product.Variants {
		product.Variants[i].Price = AdjustPrice(product.Variants[i].Price, multiplier)
	}
}

// GetProductByID retrieves a single product by its ID at base prices.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new catalog entry, deriving a slug when absent.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// AddVariant attaches a new variant to a product.
func (s *ProductService) AddVariant(productID string, variant *models.ProductVariant) error {
	if _, err := s.repo.GetByID(productID); err != nil {
		return err
	}
	variant.ProductID = productID
	return s.repo.CreateVariant(variant)
}

// AttachImage uploads an image to blob storage and appends its URL to the
// product's image list.
func (s *ProductService) AttachImage(ctx context.Context, productID, filename string, data []byte, contentType string) (*models.Product, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if s.blob == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	pathname := fmt.Sprintf("products/%s/%s%s", productID, uuid.New().String(), path.Ext(filename))
	url, err := s.blob.Upload(ctx, pathname, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	product.Images = append(product.Images, url)
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveImage detaches an image URL from the product and deletes the blob.
// A blob-store failure is logged but does not block the catalog update.
func (s *ProductService) RemoveImage(ctx context.Context, productID, url string) (*models.Product, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	images := product.Images[:0]
	for _, img := range product.Images {
		if img != url {
			images = append(images, img)
		}
	}
	product.Images = images
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	if s.blob != nil {
		if err := s.blob.Delete(ctx, url); err != nil {
			log.Printf("Warning: failed to delete product image %s: %v", url, err)
		}
	}
	return product, nil
}
