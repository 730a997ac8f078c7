package models

import "time"

// OrderStatus is the lifecycle state of an order. CART is the user's
// in-progress selection; the forward path is
// CART → PENDING → CONFIRMED → OUT_FOR_DELIVERY → DELIVERED, with CANCELLED
// reachable from PENDING and CART reachable back from CANCELLED via the
// convert-to-cart action.
type OrderStatus string

const (
	StatusCart           OrderStatus = "CART"
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// orderStatuses is the static lookup table for enum membership checks.
var orderStatuses = map[OrderStatus]struct{}{
	StatusCart:           {},
	StatusPending:        {},
	StatusConfirmed:      {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Order represents both an in-progress cart (status CART) and a placed
// order. Total is 0 while the order is a cart and is frozen once at
// confirmation. At most one CART order exists per user at a time.
type Order struct {
	ID                string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber       string      `json:"order_number" gorm:"uniqueIndex;type:varchar(24)"`
	UserID            string      `json:"user_id" gorm:"index;type:varchar(36)"`
	Status            OrderStatus `json:"status" gorm:"type:varchar(24);index"`
	Total             float64     `json:"total"`
	DeliveryAddressID *string     `json:"delivery_address_id" gorm:"type:varchar(36)"`
	BillingAddressID  *string     `json:"billing_address_id" gorm:"type:varchar(36)"`
	Items             []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is a line item of an order. Price stays nil while the parent
// order is a cart and is resolved at confirmation; the snapshot fields are
// populated at confirmation to freeze display data against later catalog
// edits, and nulled again if the order is converted back to a cart.
type OrderItem struct {
	ID                   string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID              string          `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID            string          `json:"product_id" gorm:"index;type:varchar(36)"`
	ProductVariantID     *string         `json:"product_variant_id" gorm:"type:varchar(36)"`
	Quantity             int             `json:"quantity" validate:"gte=1"`
	Price                *float64        `json:"price"`
	ProductNameSnapshot  *string         `json:"product_name_snapshot"`
	ProductImageSnapshot *string         `json:"product_image_snapshot"`
	Product              *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ProductVariant       *ProductVariant `json:"product_variant,omitempty" gorm:"foreignKey:ProductVariantID"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
