package services

import (
	"fmt"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
)

// ErrNotApproved rejects cart mutations from accounts an admin has not yet
// cleared for purchasing.
var ErrNotApproved = apperr.New(apperr.CodeForbidden, "account is not approved for purchases")

// PricedCartItem is a cart line item with the caller's adjusted unit price.
type PricedCartItem struct {
	models.OrderItem
	UnitPrice *float64 `json:"unit_price"`
	LineTotal float64  `json:"line_total"`
}

// PricedCart is a cart with display prices resolved through the owning
// user's price multiplier. Prices are read from the live catalog at
// calculation time; nothing is frozen until checkout.
type PricedCart struct {
	Order    models.Order     `json:"order"`
	Items    []PricedCartItem `json:"items"`
	Subtotal float64          `json:"subtotal"`
}

// CartService is the single source of truth for "get or create my cart" and
// for mutating cart line items under authorization and status rules.
type CartService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// basePriceOf resolves a line item's base catalog price: the variant price
// when the item references a variant, the product price otherwise.
func basePriceOf(item *models.OrderItem) *float64 {
	if item.ProductVariant != nil {
		return item.ProductVariant.Price
	}
	if item.Product != nil {
		return item.Product.Price
	}
	return item.Price
}

// priceCart builds the priced view of a cart for the given multiplier.
func priceCart(order *models.Order, multiplier float64) *PricedCart {
	items := make([]PricedCartItem, 0, len(order.Items))
	lines := make([]CartLine, 0, len(order.Items))
	for i := range order.Items {
		unitPrice := AdjustPrice(basePriceOf(&order.Items[i]), multiplier)
		line := CartLine{UnitPrice: unitPrice, Quantity: order.Items[i].Quantity}
		lines = append(lines, line)
		items = append(items, PricedCartItem{
			OrderItem: order.Items[i],
			UnitPrice: unitPrice,
			LineTotal: CalculateCartTotal([]CartLine{line}),
		})
	}

	view := *order
	view.Items = nil
	return &PricedCart{
		Order:    view,
		Items:    items,
		Subtotal: CalculateCartTotal(lines),
	}
}

// getOrCreateCartOrder finds the user's CART order or creates an empty one.
// Find-then-create is best effort: two near-simultaneous first requests for
// the same user can each create a cart (no lock, no unique constraint).
func (s *CartService) getOrCreateCartOrder(user *models.User) (*models.Order, error) {
	order, err := s.orderRepo.FindCartByUser(user.ID)
	if err == nil {
		return order, nil
	}
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, fmt.Errorf("failed to look up cart for user %s: %w", user.ID, err)
	}

	order = &models.Order{
		UserID: user.ID,
		Status: models.StatusCart,
		Total:  0,
	}
	if err := s.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create cart for user %s: %w", user.ID, err)
	}
	return order, nil
}

// GetOrCreateCart returns the user's cart with items priced through the
// user's multiplier, creating an empty cart if none exists.
func (s *CartService) GetOrCreateCart(user *models.User) (*PricedCart, error) {
	order, err := s.getOrCreateCartOrder(user)
	if err != nil {
		return nil, err
	}
	return priceCart(order, user.PriceMultiplier), nil
}

// AddOrUpdateItem puts a product into the user's cart. If a line item with
// the same (cart, product, variant) key exists its quantity is SET to the
// given value, not incremented; otherwise a new item is created with a nil
// price (resolved at confirmation). The cart total is not recomputed or
// persisted here; it is computed on read.
func (s *CartService) AddOrUpdateItem(user *models.User, productID string, variantID *string, quantity int) (*models.OrderItem, error) {
	if !user.Approved {
		return nil, ErrNotApproved
	}
	if quantity < 1 {
		return nil, apperr.New(apperr.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if variantID != nil {
		variant, err := s.productRepo.GetVariant(*variantID)
		if err != nil {
			return nil, err
		}
		if variant.ProductID != product.ID {
			return nil, apperr.Newf(apperr.CodeValidation,
				"variant %s does not belong to product %s", *variantID, productID)
		}
	}

	order, err := s.getOrCreateCartOrder(user)
	if err != nil {
		return nil, err
	}

	item, err := s.orderRepo.FindItem(order.ID, productID, variantID)
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeNotFound {
			return nil, err
		}
		item = &models.OrderItem{
			OrderID:          order.ID,
			ProductID:        productID,
			ProductVariantID: variantID,
			Quantity:         quantity,
		}
		if err := s.orderRepo.CreateItem(item); err != nil {
			return nil, err
		}
		return item, nil
	}

	item.Quantity = quantity
	if err := s.orderRepo.SaveItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// BatchAddItems applies set-absolute-quantity semantics across all given
// products in one transaction: either every item is created/updated or none
// is. quantities carries either a single value applied to every product or
// one value per product; an individual quantity below 1 defaults to 1.
func (s *CartService) BatchAddItems(user *models.User, productIDs []string, quantities []int) ([]models.OrderItem, error) {
	if !user.Approved {
		return nil, ErrNotApproved
	}
	if len(productIDs) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "at least one product is required")
	}
	if len(quantities) != 1 && len(quantities) != len(productIDs) {
		return nil, apperr.Newf(apperr.CodeValidation,
			"quantities must be a single value or one per product (got %d for %d products)",
			len(quantities), len(productIDs))
	}

	order, err := s.getOrCreateCartOrder(user)
	if err != nil {
		return nil, err
	}

	specs := make([]repositories.ItemSpec, len(productIDs))
	for i, productID := range productIDs {
		quantity := quantities[0]
		if len(quantities) == len(productIDs) {
			quantity = quantities[i]
		}
		if quantity < 1 {
			quantity = 1
		}
		specs[i] = repositories.ItemSpec{ProductID: productID, Quantity: quantity}
	}

	return s.orderRepo.BatchUpsertItems(order.ID, specs)
}

// editableItem loads an item and enforces the shared mutation gate: the
// caller is approved, owns the parent order, and the parent order is still a
// cart. Admins are exempt from all three.
func (s *CartService) editableItem(user *models.User, itemID string) (*models.OrderItem, error) {
	item, err := s.orderRepo.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(item.OrderID)
	if err != nil {
		return nil, err
	}

	if !user.Approved && !user.IsAdmin() {
		return nil, ErrNotApproved
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "you do not own this order")
	}
	if order.Status != models.StatusCart && !user.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "order is no longer editable")
	}
	return item, nil
}

// UpdateItemQuantity sets the quantity of an existing line item.
func (s *CartService) UpdateItemQuantity(user *models.User, itemID string, quantity int) (*models.OrderItem, error) {
	if quantity < 1 {
		return nil, apperr.New(apperr.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.editableItem(user, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.orderRepo.SaveItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a line item under the same gate as quantity updates.
func (s *CartService) RemoveItem(user *models.User, itemID string) error {
	item, err := s.editableItem(user, itemID)
	if err != nil {
		return err
	}
	return s.orderRepo.DeleteItem(item.ID)
}

// ClearCart deletes every item of the user's cart. Clearing a user who has
// no cart yet is a no-op, not an error.
func (s *CartService) ClearCart(user *models.User) error {
	if !user.Approved {
		return ErrNotApproved
	}
	order, err := s.orderRepo.FindCartByUser(user.ID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil
		}
		return err
	}
	return s.orderRepo.DeleteItemsByOrder(order.ID)
}
