package repositories

import (
	"errors"
	"fmt"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db      *gorm.DB
	metrics *metrics.Recorder
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// The recorder may be nil.
func NewGORMProductRepository(db *gorm.DB, recorder *metrics.Recorder) *GORMProductRepository {
	return &GORMProductRepository{
		db:      db,
		metrics: recorder,
	}
}

func (r *GORMProductRepository) observe(name string, start time.Time) {
	r.metrics.Capture("db", "product."+name, time.Since(start))
}

// GetAll retrieves all products with their variants.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	defer r.observe("GetAll", time.Now())
	var products []models.Product
	if err := r.db.Preload("Variants").Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID with its variants.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	defer r.observe("GetByID", time.Now())
	var product models.Product
	if err := r.db.Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "product with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetBySlug retrieves a single product by its slug with its variants.
func (r *GORMProductRepository) GetBySlug(slug string) (*models.Product, error) {
	defer r.observe("GetBySlug", time.Now())
	var product models.Product
	if err := r.db.Preload("Variants").First(&product, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "product with slug %s not found", slug)
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	defer r.observe("Create", time.Now())
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	defer r.observe("Update", time.Now())
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	defer r.observe("Delete", time.Now())
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "product with ID %s not found for deletion", id)
	}
	return nil
}

// GetVariant retrieves a single product variant by its ID.
func (r *GORMProductRepository) GetVariant(id string) (*models.ProductVariant, error) {
	defer r.observe("GetVariant", time.Now())
	var variant models.ProductVariant
	if err := r.db.First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "product variant with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product variant by ID %s: %w", id, err)
	}
	return &variant, nil
}

// CreateVariant creates a new product variant in the database.
func (r *GORMProductRepository) CreateVariant(variant *models.ProductVariant) error {
	defer r.observe("CreateVariant", time.Now())
	if variant.ID == "" {
		variant.ID = uuid.New().String()
	}
	if err := r.db.Create(variant).Error; err != nil {
		return fmt.Errorf("failed to create product variant: %w", err)
	}
	return nil
}
