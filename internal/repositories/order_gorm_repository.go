package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db      *gorm.DB
	metrics *metrics.Recorder
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
// The recorder may be nil.
func NewGORMOrderRepository(db *gorm.DB, recorder *metrics.Recorder) *GORMOrderRepository {
	return &GORMOrderRepository{
		db:      db,
		metrics: recorder,
	}
}

func (r *GORMOrderRepository) observe(name string, start time.Time) {
	r.metrics.Capture("db", "order."+name, time.Since(start))
}

// newOrderNumber generates a short, stable order number. Assigned once at
// creation and never changed, even when a cancelled order is reopened.
func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "FW-" + strings.ToUpper(raw[:10])
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("Items.Product").Preload("Items.ProductVariant")
}

// FindCartByUser retrieves the user's order in CART status with its items.
func (r *GORMOrderRepository) FindCartByUser(userID string) (*models.Order, error) {
	defer r.observe("FindCartByUser", time.Now())
	var order models.Order
	err := preloadItems(r.db).
		First(&order, "user_id = ? AND status = ?", userID, models.StatusCart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "no cart found for user %s", userID)
		}
		return nil, fmt.Errorf("failed to find cart for user %s: %w", userID, err)
	}
	return &order, nil
}

// CreateOrder creates a new order, assigning an ID and order number when absent.
func (r *GORMOrderRepository) CreateOrder(order *models.Order) error {
	defer r.observe("CreateOrder", time.Now())
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = newOrderNumber()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	defer r.observe("GetByID", time.Now())
	var order models.Order
	if err := preloadItems(r.db).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetAllByUser retrieves a user's placed orders (everything except the live
// cart), newest first.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	defer r.observe("GetAllByUser", time.Now())
	var orders []models.Order
	err := preloadItems(r.db).
		Where("user_id = ? AND status <> ?", userID, models.StatusCart).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetAll retrieves every order, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	defer r.observe("GetAll", time.Now())
	var orders []models.Order
	if err := preloadItems(r.db).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	defer r.observe("UpdateStatus", time.Now())
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "order with ID %s not found for status update", id)
	}
	return nil
}

// SaveOrderWithItems persists the order row and all of its item rows in one
// transaction, so a confirm or reopen either lands completely or not at all.
func (r *GORMOrderRepository) SaveOrderWithItems(order *models.Order) error {
	defer r.observe("SaveOrderWithItems", time.Now())
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			if err := tx.Omit("Product", "ProductVariant").Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save order %s with items: %w", order.ID, err)
	}
	return nil
}

// DeleteOrder removes an order and its line items in one transaction.
func (r *GORMOrderRepository) DeleteOrder(id string) error {
	defer r.observe("DeleteOrder", time.Now())
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Newf(apperr.CodeNotFound, "order with ID %s not found for deletion", id)
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}

// GetItem retrieves a single line item by its ID with its product.
func (r *GORMOrderRepository) GetItem(itemID string) (*models.OrderItem, error) {
	defer r.observe("GetItem", time.Now())
	var item models.OrderItem
	err := r.db.Preload("Product").Preload("ProductVariant").
		First(&item, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found", itemID)
		}
		return nil, fmt.Errorf("failed to get order item by ID %s: %w", itemID, err)
	}
	return &item, nil
}

// FindItem locates a line item by its (order, product, variant) key.
func (r *GORMOrderRepository) FindItem(orderID, productID string, variantID *string) (*models.OrderItem, error) {
	defer r.observe("FindItem", time.Now())
	query := r.db.Where("order_id = ? AND product_id = ?", orderID, productID)
	if variantID == nil {
		query = query.Where("product_variant_id IS NULL")
	} else {
		query = query.Where("product_variant_id = ?", *variantID)
	}

	var item models.OrderItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound,
				"no item for product %s in order %s", productID, orderID)
		}
		return nil, fmt.Errorf("failed to find item for product %s in order %s: %w", productID, orderID, err)
	}
	return &item, nil
}

// CreateItem creates a new line item.
func (r *GORMOrderRepository) CreateItem(item *models.OrderItem) error {
	defer r.observe("CreateItem", time.Now())
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Omit("Product", "ProductVariant").Create(item).Error; err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

// SaveItem updates an existing line item.
func (r *GORMOrderRepository) SaveItem(item *models.OrderItem) error {
	defer r.observe("SaveItem", time.Now())
	res := r.db.Omit("Product", "ProductVariant").Save(item)
	if res.Error != nil {
		return fmt.Errorf("failed to save order item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found for update", item.ID)
	}
	return nil
}

// DeleteItem deletes a line item by its ID.
func (r *GORMOrderRepository) DeleteItem(itemID string) error {
	defer r.observe("DeleteItem", time.Now())
	res := r.db.Delete(&models.OrderItem{}, "id = ?", itemID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found for deletion", itemID)
	}
	return nil
}

// DeleteItemsByOrder deletes every line item of an order. Deleting from an
// order that has no items is not an error.
func (r *GORMOrderRepository) DeleteItemsByOrder(orderID string) error {
	defer r.observe("DeleteItemsByOrder", time.Now())
	if err := r.db.Delete(&models.OrderItem{}, "order_id = ?", orderID).Error; err != nil {
		return fmt.Errorf("failed to clear items of order %s: %w", orderID, err)
	}
	return nil
}

// BatchUpsertItems applies absolute-quantity upserts for all specs inside one
// transaction. Every product (and variant, when given) must exist; any
// failure rolls the entire batch back so no partial cart is persisted.
func (r *GORMOrderRepository) BatchUpsertItems(orderID string, specs []ItemSpec) ([]models.OrderItem, error) {
	defer r.observe("BatchUpsertItems", time.Now())
	items := make([]models.OrderItem, 0, len(specs))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, spec := range specs {
			var product models.Product
			if err := tx.First(&product, "id = ?", spec.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Newf(apperr.CodeNotFound, "product with ID %s not found", spec.ProductID)
				}
				return err
			}
			if spec.VariantID != nil {
				var variant models.ProductVariant
				if err := tx.First(&variant, "id = ? AND product_id = ?", *spec.VariantID, spec.ProductID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.Newf(apperr.CodeNotFound,
							"product variant with ID %s not found", *spec.VariantID)
					}
					return err
				}
			}

			query := tx.Where("order_id = ? AND product_id = ?", orderID, spec.ProductID)
			if spec.VariantID == nil {
				query = query.Where("product_variant_id IS NULL")
			} else {
				query = query.Where("product_variant_id = ?", *spec.VariantID)
			}

			var item models.OrderItem
			err := query.First(&item).Error
			switch {
			case err == nil:
				item.Quantity = spec.Quantity
				if err := tx.Omit("Product", "ProductVariant").Save(&item).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				item = models.OrderItem{
					ID:               uuid.New().String(),
					OrderID:          orderID,
					ProductID:        spec.ProductID,
					ProductVariantID: spec.VariantID,
					Quantity:         spec.Quantity,
				}
				if err := tx.Omit("Product", "ProductVariant").Create(&item).Error; err != nil {
					return err
				}
			default:
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, fmt.Errorf("failed to batch upsert items for order %s: %w", orderID, err)
	}
	return items, nil
}
