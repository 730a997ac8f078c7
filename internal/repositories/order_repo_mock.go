package repositories

import (
	"sort"
	"sync"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// When constructed with a ProductRepository it hydrates line items with
// product/variant data and enforces product existence on batch writes, the
// same way the GORM implementation does.
type MockOrderRepository struct {
	orders   map[string]models.Order
	items    map[string]models.OrderItem
	products ProductRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// products may be nil; items are then returned unhydrated.
func NewMockOrderRepository(products ProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		items:    make(map[string]models.OrderItem),
		products: products,
	}
}

// itemsOf collects an order's items in creation order. Callers must hold the lock.
func (r *MockOrderRepository) itemsOf(orderID string) []models.OrderItem {
	var items []models.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (r *MockOrderRepository) hydrate(order *models.Order) {
	order.Items = r.itemsOf(order.ID)
	if r.products == nil {
		return
	}
	for i := range order.Items {
		if product, err := r.products.GetByID(order.Items[i].ProductID); err == nil {
			order.Items[i].Product = product
		}
		if vid := order.Items[i].ProductVariantID; vid != nil {
			if variant, err := r.products.GetVariant(*vid); err == nil {
				order.Items[i].ProductVariant = variant
			}
		}
	}
}

// FindCartByUser returns the user's CART order, if any.
func (r *MockOrderRepository) FindCartByUser(userID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.UserID == userID && order.Status == models.StatusCart {
			found := order
			r.hydrate(&found)
			return &found, nil
		}
	}
	return nil, apperr.Newf(apperr.CodeNotFound, "no cart found for user %s", userID)
}

// CreateOrder adds a new order.
func (r *MockOrderRepository) CreateOrder(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = newOrderNumber()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	stored := *order
	stored.Items = nil
	r.orders[order.ID] = stored
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "order with ID %s not found", id)
	}
	r.hydrate(&order)
	return &order, nil
}

// GetAllByUser returns a user's placed (non-CART) orders.
func (r *MockOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID && order.Status != models.StatusCart {
			r.hydrate(&order)
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		r.hydrate(&order)
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperr.Newf(apperr.CodeNotFound, "order with ID %s not found for status update", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SaveOrderWithItems stores the order row and all of its item rows.
func (r *MockOrderRepository) SaveOrderWithItems(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.UpdatedAt = time.Now()
	stored := *order
	stored.Items = nil
	r.orders[order.ID] = stored
	for i := range order.Items {
		item := order.Items[i]
		item.Product = nil
		item.ProductVariant = nil
		item.UpdatedAt = time.Now()
		r.items[item.ID] = item
	}
	return nil
}

// DeleteOrder removes an order and its line items.
func (r *MockOrderRepository) DeleteOrder(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return apperr.Newf(apperr.CodeNotFound, "order with ID %s not found for deletion", id)
	}
	delete(r.orders, id)
	for itemID, item := range r.items {
		if item.OrderID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

// GetItem returns a line item by its ID.
func (r *MockOrderRepository) GetItem(itemID string) (*models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found", itemID)
	}
	if r.products != nil {
		if product, err := r.products.GetByID(item.ProductID); err == nil {
			item.Product = product
		}
	}
	return &item, nil
}

// FindItem locates a line item by its (order, product, variant) key.
func (r *MockOrderRepository) FindItem(orderID, productID string, variantID *string) (*models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.OrderID != orderID || item.ProductID != productID {
			continue
		}
		if !sameVariant(item.ProductVariantID, variantID) {
			continue
		}
		found := item
		return &found, nil
	}
	return nil, apperr.Newf(apperr.CodeNotFound, "no item for product %s in order %s", productID, orderID)
}

func sameVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CreateItem adds a new line item.
func (r *MockOrderRepository) CreateItem(item *models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	stored := *item
	stored.Product = nil
	stored.ProductVariant = nil
	r.items[item.ID] = stored
	return nil
}

// SaveItem updates an existing line item.
func (r *MockOrderRepository) SaveItem(item *models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found for update", item.ID)
	}
	item.UpdatedAt = time.Now()
	stored := *item
	stored.Product = nil
	stored.ProductVariant = nil
	r.items[item.ID] = stored
	return nil
}

// DeleteItem removes a line item by its ID.
func (r *MockOrderRepository) DeleteItem(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[itemID]; !ok {
		return apperr.Newf(apperr.CodeNotFound, "order item with ID %s not found for deletion", itemID)
	}
	delete(r.items, itemID)
	return nil
}

// DeleteItemsByOrder removes every line item of an order.
func (r *MockOrderRepository) DeleteItemsByOrder(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.OrderID == orderID {
			delete(r.items, id)
		}
	}
	return nil
}

// BatchUpsertItems applies absolute-quantity upserts for all specs,
// all-or-nothing: every product must exist before anything is written.
func (r *MockOrderRepository) BatchUpsertItems(orderID string, specs []ItemSpec) ([]models.OrderItem, error) {
	if r.products != nil {
		for _, spec := range specs {
			if _, err := r.products.GetByID(spec.ProductID); err != nil {
				return nil, err
			}
			if spec.VariantID != nil {
				if _, err := r.products.GetVariant(*spec.VariantID); err != nil {
					return nil, err
				}
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]models.OrderItem, 0, len(specs))
	for _, spec := range specs {
		var existing *models.OrderItem
		for _, item := range r.items {
			if item.OrderID == orderID && item.ProductID == spec.ProductID &&
				sameVariant(item.ProductVariantID, spec.VariantID) {
				found := item
				existing = &found
				break
			}
		}

		if existing != nil {
			existing.Quantity = spec.Quantity
			existing.UpdatedAt = time.Now()
			r.items[existing.ID] = *existing
			items = append(items, *existing)
			continue
		}

		item := models.OrderItem{
			ID:               uuid.New().String(),
			OrderID:          orderID,
			ProductID:        spec.ProductID,
			ProductVariantID: spec.VariantID,
			Quantity:         spec.Quantity,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		r.items[item.ID] = item
		items = append(items, item)
	}
	return items, nil
}
