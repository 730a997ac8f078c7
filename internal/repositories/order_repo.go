package repositories

import "bunga/internal/models"

// ItemSpec describes one line item of a batch cart write.
type ItemSpec struct {
	ProductID string
	VariantID *string
	Quantity  int
}

// OrderRepository defines the interface for order and line item data access.
// Orders returned by the lookup methods come with their items and the items'
// product/variant rows preloaded.
type OrderRepository interface {
	FindCartByUser(userID string) (*models.Order, error)
	CreateOrder(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	UpdateStatus(id string, status models.OrderStatus) error
	// SaveOrderWithItems persists the order row and every item row in one
	// transaction; used by the confirm and reopen transitions.
	SaveOrderWithItems(order *models.Order) error
	// DeleteOrder removes an order together with its line items.
	DeleteOrder(id string) error

	GetItem(itemID string) (*models.OrderItem, error)
	FindItem(orderID, productID string, variantID *string) (*models.OrderItem, error)
	CreateItem(item *models.OrderItem) error
	SaveItem(item *models.OrderItem) error
	DeleteItem(itemID string) error
	DeleteItemsByOrder(orderID string) error
	// BatchUpsertItems applies absolute-quantity upserts for every spec in a
	// single transaction; a missing product rolls the whole batch back.
	BatchUpsertItems(orderID string, specs []ItemSpec) ([]models.OrderItem, error)
}
