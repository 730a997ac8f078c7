package services_test

import (
	"testing"
	"time"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
	"bunga/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a testify mock for the broker.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

// mailProbe records the order confirmation send so tests can wait for the
// fire-and-forget goroutine.
type mailProbe struct {
	sent chan string
}

func (m *mailProbe) SendOrderPlaced(to, orderNumber string, total float64) error {
	m.sent <- orderNumber
	return nil
}

type orderFixture struct {
	orders    *services.OrderService
	cart      *services.CartService
	orderRepo *repositories.MockOrderRepository
	userRepo  *repositories.MockUserRepository
	products  *repositories.MockProductRepository
	publisher *MockEventPublisher
}

func newOrderFixture(mailer services.OrderMailer) *orderFixture {
	productRepo := repositories.NewMockProductRepository()
	orderRepo := repositories.NewMockOrderRepository(productRepo)
	userRepo := repositories.NewMockUserRepository()
	publisher := &MockEventPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return &orderFixture{
		orders:    services.NewOrderService(orderRepo, userRepo, publisher, mailer),
		cart:      services.NewCartService(orderRepo, productRepo),
		orderRepo: orderRepo,
		userRepo:  userRepo,
		products:  productRepo,
		publisher: publisher,
	}
}

// fillCart puts a $10.00 product (qty 3) and a market-priced product (qty 1)
// into the user's cart.
func (f *orderFixture) fillCart(t *testing.T, user *models.User) (priced, market *models.Product) {
	t.Helper()
	priced = seedProduct(t, f.products, "ranunculus-"+uuid.New().String()[:8], fptr(10.00))
	priced.Images = []string{"https://cdn.example.com/ranunculus.jpg"}
	require.NoError(t, f.products.Update(priced))
	market = seedProduct(t, f.products, "market-mix-"+uuid.New().String()[:8], nil)

	_, err := f.cart.AddOrUpdateItem(user, priced.ID, nil, 3)
	require.NoError(t, err)
	_, err = f.cart.AddOrUpdateItem(user, market.ID, nil, 1)
	require.NoError(t, err)
	return priced, market
}

func TestCheckout(t *testing.T) {
	t.Run("freezes prices, snapshots and total", func(t *testing.T) {
		f := newOrderFixture(nil)
		user := approvedUser()
		user.PriceMultiplier = 1.5
		priced, market := f.fillCart(t, user)

		order, err := f.orders.Checkout(user, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, models.StatusPending, order.Status)
		// 10.00 * 1.5 * 3 = 45.00; the market line contributes nothing yet.
		assert.InDelta(t, 45.00, order.Total, 1e-9)

		require.Len(t, order.Items, 2)
		for _, item := range order.Items {
			switch item.ProductID {
			case priced.ID:
				require.NotNil(t, item.Price)
				assert.InDelta(t, 15.00, *item.Price, 1e-9)
				require.NotNil(t, item.ProductNameSnapshot)
				assert.Equal(t, priced.Name, *item.ProductNameSnapshot)
				require.NotNil(t, item.ProductImageSnapshot)
				assert.Equal(t, priced.Images[0], *item.ProductImageSnapshot)
			case market.ID:
				assert.Nil(t, item.Price, "market prices stay open until staff set them")
				require.NotNil(t, item.ProductNameSnapshot)
			default:
				t.Fatalf("unexpected item for product %s", item.ProductID)
			}
		}

		f.publisher.AssertCalled(t, "Publish", "order", "order.placed", mock.Anything)

		// The cart is gone: a new read creates a fresh empty one.
		cart, err := f.cart.GetOrCreateCart(user)
		require.NoError(t, err)
		assert.NotEqual(t, order.ID, cart.Order.ID)
		assert.Empty(t, cart.Items)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newOrderFixture(nil)
		user := approvedUser()

		// No cart at all.
		_, err := f.orders.Checkout(user, nil, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

		// A cart with no items.
		_, err = f.cart.GetOrCreateCart(user)
		require.NoError(t, err)
		_, err = f.orders.Checkout(user, nil, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("unapproved user", func(t *testing.T) {
		f := newOrderFixture(nil)
		user := approvedUser()
		f.fillCart(t, user)
		user.Approved = false

		_, err := f.orders.Checkout(user, nil, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("address ownership", func(t *testing.T) {
		f := newOrderFixture(nil)
		user := approvedUser()
		f.fillCart(t, user)

		theirs := &models.Address{UserID: uuid.New().String(), Recipient: "Someone Else"}
		require.NoError(t, f.userRepo.CreateAddress(theirs))

		_, err := f.orders.Checkout(user, &theirs.ID, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

		mine := &models.Address{UserID: user.ID, Recipient: "Me"}
		require.NoError(t, f.userRepo.CreateAddress(mine))

		order, err := f.orders.Checkout(user, &mine.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, order.DeliveryAddressID)
		assert.Equal(t, mine.ID, *order.DeliveryAddressID)
	})

	t.Run("sends the confirmation mail", func(t *testing.T) {
		probe := &mailProbe{sent: make(chan string, 1)}
		f := newOrderFixture(probe)
		user := approvedUser()
		f.fillCart(t, user)

		order, err := f.orders.Checkout(user, nil, nil)
		require.NoError(t, err)

		select {
		case number := <-probe.sent:
			assert.Equal(t, order.OrderNumber, number)
		case <-time.After(2 * time.Second):
			t.Fatal("order confirmation mail was never sent")
		}
	})
}

// placePendingOrder runs a full cart+checkout for a fresh approved user.
func placePendingOrder(t *testing.T, f *orderFixture) (*models.User, *models.Order) {
	t.Helper()
	user := approvedUser()
	user.Email = uuid.New().String() + "@example.com"
	f.fillCart(t, user)
	order, err := f.orders.Checkout(user, nil, nil)
	require.NoError(t, err)
	return user, order
}

func TestCancelOrder(t *testing.T) {
	t.Run("only pending orders", func(t *testing.T) {
		f := newOrderFixture(nil)
		user, order := placePendingOrder(t, f)
		require.NoError(t, f.orderRepo.UpdateStatus(order.ID, models.StatusConfirmed))

		_, err := f.orders.CancelOrder(user, order.ID, false)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		assert.Contains(t, err.Error(), "Only PENDING orders can be cancelled")
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		f := newOrderFixture(nil)
		_, order := placePendingOrder(t, f)

		stranger := approvedUser()
		stranger.ID = uuid.New().String()
		_, err := f.orders.CancelOrder(stranger, order.ID, false)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("plain cancel keeps the historical record", func(t *testing.T) {
		f := newOrderFixture(nil)
		user, order := placePendingOrder(t, f)
		frozenTotal := order.Total

		cancelled, err := f.orders.CancelOrder(user, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		assert.Equal(t, frozenTotal, cancelled.Total)

		stored, err := f.orderRepo.GetByID(order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, stored.Status)
		assert.Equal(t, frozenTotal, stored.Total)
		for _, item := range stored.Items {
			assert.NotNil(t, item.ProductNameSnapshot, "cancelled orders keep their snapshots")
		}
		f.publisher.AssertCalled(t, "Publish", "order", "order.cancelled", mock.Anything)
	})

	t.Run("convert to cart reopens the order", func(t *testing.T) {
		f := newOrderFixture(nil)
		user, order := placePendingOrder(t, f)

		quantities := make(map[string]int)
		for _, item := range order.Items {
			quantities[item.ID] = item.Quantity
		}

		reopened, err := f.orders.CancelOrder(user, order.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCart, reopened.Status)
		assert.Equal(t, 0.0, reopened.Total)

		stored, err := f.orderRepo.GetByID(order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCart, stored.Status)
		require.Len(t, stored.Items, len(quantities))
		for _, item := range stored.Items {
			assert.Nil(t, item.ProductNameSnapshot)
			assert.Nil(t, item.ProductImageSnapshot)
			assert.Equal(t, quantities[item.ID], item.Quantity, "quantities survive the conversion")
		}

		// The reopened order is the user's cart again.
		cart, err := f.cart.GetOrCreateCart(user)
		require.NoError(t, err)
		assert.Equal(t, order.ID, cart.Order.ID)

		// Reopening is not a cancellation as far as consumers are concerned.
		f.publisher.AssertCalled(t, "Publish", "order", "order.reopened", mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", "order", "order.cancelled", mock.Anything)
	})

	t.Run("reopen discards an empty interim cart", func(t *testing.T) {
		f := newOrderFixture(nil)
		user, order := placePendingOrder(t, f)

		// Viewing the cart page after checkout creates a fresh empty cart.
		interim, err := f.cart.GetOrCreateCart(user)
		require.NoError(t, err)
		require.NotEqual(t, order.ID, interim.Order.ID)

		reopened, err := f.orders.CancelOrder(user, order.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCart, reopened.Status)

		// The interim cart is gone; the reopened order is the only cart.
		_, err = f.orderRepo.GetByID(interim.Order.ID)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
		cart, err := f.cart.GetOrCreateCart(user)
		require.NoError(t, err)
		assert.Equal(t, order.ID, cart.Order.ID)
	})

	t.Run("reopen is refused when a newer cart has items", func(t *testing.T) {
		f := newOrderFixture(nil)
		user, order := placePendingOrder(t, f)

		// The user started a fresh cart while the order was pending.
		extra := seedProduct(t, f.products, "gift-wrap-"+uuid.New().String()[:8], fptr(2.00))
		_, err := f.cart.AddOrUpdateItem(user, extra.ID, nil, 1)
		require.NoError(t, err)

		_, err = f.orders.CancelOrder(user, order.ID, true)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

		stored, err := f.orderRepo.GetByID(order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status, "the order is untouched")

		// A plain cancel is still available.
		cancelled, err := f.orders.CancelOrder(user, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
	})

	t.Run("admin may cancel another user's pending order", func(t *testing.T) {
		f := newOrderFixture(nil)
		_, order := placePendingOrder(t, f)

		admin := approvedUser()
		admin.ID = uuid.New().String()
		admin.Role = models.RoleAdmin

		cancelled, err := f.orders.CancelOrder(admin, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
	})
}

func TestSetStatus(t *testing.T) {
	f := newOrderFixture(nil)
	user, order := placePendingOrder(t, f)

	admin := approvedUser()
	admin.ID = uuid.New().String()
	admin.Role = models.RoleAdmin

	t.Run("admin only", func(t *testing.T) {
		_, err := f.orders.SetStatus(user, order.ID, models.StatusConfirmed)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := f.orders.SetStatus(admin, order.ID, models.OrderStatus("SHIPPED"))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("sets any known status", func(t *testing.T) {
		updated, err := f.orders.SetStatus(admin, order.ID, models.StatusOutForDelivery)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOutForDelivery, updated.Status)
		f.publisher.AssertCalled(t, "Publish", "order", "order.status_changed", mock.Anything)

		// The override is not a guarded transition: stepping backwards works too.
		updated, err = f.orders.SetStatus(admin, order.ID, models.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.orders.SetStatus(admin, uuid.New().String(), models.StatusConfirmed)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(nil)
	userA, _ := placePendingOrder(t, f)
	placePendingOrder(t, f)

	// An open cart must not show up in order lists.
	_, err := f.cart.GetOrCreateCart(userA)
	require.NoError(t, err)

	mine, err := f.orders.ListOrders(userA)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, userA.ID, mine[0].UserID)
	assert.NotEqual(t, models.StatusCart, mine[0].Status)

	admin := approvedUser()
	admin.ID = uuid.New().String()
	admin.Role = models.RoleAdmin
	all, err := f.orders.ListOrders(admin)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}

func TestGetOrder(t *testing.T) {
	f := newOrderFixture(nil)
	user, order := placePendingOrder(t, f)

	got, err := f.orders.GetOrder(user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	stranger := approvedUser()
	stranger.ID = uuid.New().String()
	_, err = f.orders.GetOrder(stranger, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	admin := approvedUser()
	admin.ID = uuid.New().String()
	admin.Role = models.RoleAdmin
	_, err = f.orders.GetOrder(admin, order.ID)
	assert.NoError(t, err)
}
