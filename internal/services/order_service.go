package services

import (
	"encoding/json"
	"log"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderMailer sends the order confirmation mail. Delivery is fire-and-forget;
// failures never affect the order transaction.
type OrderMailer interface {
	SendOrderPlaced(to, orderNumber string, total float64) error
}

// OrderService owns the order status lifecycle: checkout (CART → PENDING),
// the guarded self-service cancel, and the permissive admin status override.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	publisher EventPublisher
	mailer    OrderMailer
}

// NewOrderService creates a new OrderService. publisher and mailer may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, publisher EventPublisher, mailer OrderMailer) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		publisher: publisher,
		mailer:    mailer,
	}
}

// publishEvent emits an order event. A broker failure is logged, never
// surfaced: the order transaction has already committed.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"status":       order.Status,
		"total":        order.Total,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

// verifyAddress checks that an optional address reference belongs to the user.
func (s *OrderService) verifyAddress(user *models.User, addressID *string) error {
	if addressID == nil {
		return nil
	}
	address, err := s.userRepo.GetAddress(*addressID)
	if err != nil {
		return err
	}
	if address.UserID != user.ID {
		return apperr.New(apperr.CodeForbidden, "address does not belong to you")
	}
	return nil
}

// Checkout confirms the user's cart: CART → PENDING. Each item's price is
// resolved through the user's multiplier (market-priced items stay nil until
// staff set them), display snapshots are frozen from the current catalog, and
// the total is computed once and persisted. Order and items are written in a
// single transaction.
func (s *OrderService) Checkout(user *models.User, deliveryAddressID, billingAddressID *string) (*models.Order, error) {
	if !user.Approved {
		return nil, ErrNotApproved
	}

	order, err := s.orderRepo.FindCartByUser(user.ID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, apperr.New(apperr.CodeValidation, "cart is empty")
		}
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "cart is empty")
	}

	if err := s.verifyAddress(user, deliveryAddressID); err != nil {
		return nil, err
	}
	if err := s.verifyAddress(user, billingAddressID); err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		item.Price = AdjustPrice(basePriceOf(item), user.PriceMultiplier)
		if item.Product != nil {
			name := item.Product.Name
			item.ProductNameSnapshot = &name
			item.ProductImageSnapshot = item.Product.FirstImage()
		}
		lines = append(lines, CartLine{UnitPrice: item.Price, Quantity: item.Quantity})
	}

	order.Total = CalculateCartTotal(lines)
	order.Status = models.StatusPending
	order.DeliveryAddressID = deliveryAddressID
	order.BillingAddressID = billingAddressID

	if err := s.orderRepo.SaveOrderWithItems(order); err != nil {
		return nil, err
	}

	s.publishEvent("order.placed", order)
	if s.mailer != nil {
		go func(email, number string, total float64) {
			if err := s.mailer.SendOrderPlaced(email, number, total); err != nil {
				log.Printf("Warning: failed to send order mail for %s: %v", number, err)
			}
		}(user.Email, order.OrderNumber, order.Total)
	}

	return order, nil
}

// CancelOrder cancels a PENDING order. With convertToCart the order reopens
// for editing: back to CART status, total reset to 0, and every item's
// display snapshots cleared so fresh catalog data is shown — quantities are
// preserved. Reopening is refused when the user has filled a new cart in the
// meantime (an empty interim cart is discarded), so a user never ends up with
// two CART orders on this path. Without convertToCart the order becomes
// CANCELLED and keeps its total and snapshots as a readable historical record.
func (s *OrderService) CancelOrder(user *models.User, orderID string, convertToCart bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "you do not own this order")
	}
	if order.Status != models.StatusPending {
		return nil, apperr.New(apperr.CodeValidation, "Only PENDING orders can be cancelled")
	}

	if !convertToCart {
		if err := s.orderRepo.UpdateStatus(order.ID, models.StatusCancelled); err != nil {
			return nil, err
		}
		order.Status = models.StatusCancelled
		s.publishEvent("order.cancelled", order)
		return order, nil
	}

	// The owner may have started a fresh cart while this order was PENDING;
	// reopening would then leave two CART orders for the same user. An empty
	// interim cart (created by merely viewing the cart page) is discarded; a
	// cart with items blocks the reopen.
	if cart, err := s.orderRepo.FindCartByUser(order.UserID); err == nil {
		if cart.ID != order.ID {
			if len(cart.Items) > 0 {
				return nil, apperr.New(apperr.CodeConflict, "a newer cart already exists; clear it before reopening this order")
			}
			if err := s.orderRepo.DeleteOrder(cart.ID); err != nil {
				return nil, err
			}
		}
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, err
	}

	order.Status = models.StatusCart
	order.Total = 0
	for i := range order.Items {
		order.Items[i].ProductNameSnapshot = nil
		order.Items[i].ProductImageSnapshot = nil
	}
	if err := s.orderRepo.SaveOrderWithItems(order); err != nil {
		return nil, err
	}
	s.publishEvent("order.reopened", order)
	return order, nil
}

// SetStatus is the admin-only direct status edit. Enum membership is the only
// check: this is an administrative override, not a guarded transition, and it
// does not preserve the invariants the guarded paths maintain.
func (s *OrderService) SetStatus(user *models.User, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !user.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "admin role required")
	}
	if !status.Valid() {
		return nil, apperr.Newf(apperr.CodeValidation, "invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publishEvent("order.status_changed", order)
	return order, nil
}

// ListOrders returns the caller's placed orders; admins see every order.
func (s *OrderService) ListOrders(user *models.User) ([]models.Order, error) {
	if user.IsAdmin() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetAllByUser(user.ID)
}

// GetOrder returns a single order, visible to its owner and to admins.
func (s *OrderService) GetOrder(user *models.User, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.New(apperr.CodeForbidden, "you do not own this order")
	}
	return order, nil
}
