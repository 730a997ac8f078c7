package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"bunga/internal/apperr"
	"bunga/internal/models"
	"bunga/internal/repositories"
	"bunga/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobStore records uploads and deletes in memory.
type fakeBlobStore struct {
	uploads    map[string][]byte
	deleted    []string
	failDelete bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, pathname string, data []byte, contentType string) (string, error) {
	f.uploads[pathname] = data
	return "https://cdn.example.com/" + pathname, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, url string) error {
	if f.failDelete {
		return fmt.Errorf("blob store unavailable")
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func TestProductService_GetCatalog(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil)

	priced := &models.Product{Name: "Rose", Slug: "rose", Price: fptr(10.00)}
	require.NoError(t, repo.Create(priced))
	variant := &models.ProductVariant{ProductID: priced.ID, StemLength: 60, Price: fptr(12.00)}
	require.NoError(t, repo.CreateVariant(variant))
	priced.Variants = []models.ProductVariant{*variant}
	require.NoError(t, repo.Update(priced))

	market := &models.Product{Name: "Seasonal Mix", Slug: "seasonal-mix", Price: nil}
	require.NoError(t, repo.Create(market))

	t.Run("anonymous sees base prices", func(t *testing.T) {
		products, err := service.GetCatalog(nil)
		require.NoError(t, err)
		require.Len(t, products, 2)
		for _, p := range products {
			if p.ID == priced.ID {
				require.NotNil(t, p.Price)
				assert.InDelta(t, 10.00, *p.Price, 1e-9)
			}
		}
	})

	t.Run("logged-in user sees adjusted prices", func(t *testing.T) {
		user := approvedUser()
		user.PriceMultiplier = 2.0

		products, err := service.GetCatalog(user)
		require.NoError(t, err)
		for _, p := range products {
			switch p.ID {
			case priced.ID:
				require.NotNil(t, p.Price)
				assert.InDelta(t, 20.00, *p.Price, 1e-9)
				require.Len(t, p.Variants, 1)
				require.NotNil(t, p.Variants[0].Price)
				assert.InDelta(t, 24.00, *p.Variants[0].Price, 1e-9)
			case market.ID:
				assert.Nil(t, p.Price, "market prices are never adjusted")
			}
		}
	})

	t.Run("by slug", func(t *testing.T) {
		user := approvedUser()
		user.PriceMultiplier = 0.5

		product, err := service.GetProductBySlug("rose", user)
		require.NoError(t, err)
		require.NotNil(t, product.Price)
		assert.InDelta(t, 5.00, *product.Price, 1e-9)

		_, err = service.GetProductBySlug("no-such-flower", nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})
}

func TestProductService_CreateProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil)

	product := &models.Product{Name: "White Ranunculus 60cm", Price: fptr(3.25)}
	require.NoError(t, service.CreateProduct(product))
	assert.Equal(t, "white-ranunculus-60cm", product.Slug)

	// An explicit slug is kept as-is.
	custom := &models.Product{Name: "Hydrangea", Slug: "blue-hydrangea", Price: fptr(6.00)}
	require.NoError(t, service.CreateProduct(custom))
	assert.Equal(t, "blue-hydrangea", custom.Slug)
}

func TestProductService_AddVariant(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil)

	product := &models.Product{Name: "Rose", Slug: "rose", Price: fptr(3.00)}
	require.NoError(t, repo.Create(product))

	variant := &models.ProductVariant{StemLength: 70, CountPerBunch: 20, Price: fptr(4.50)}
	require.NoError(t, service.AddVariant(product.ID, variant))
	assert.Equal(t, product.ID, variant.ProductID)

	stored, err := repo.GetVariant(variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.StemLength)

	err = service.AddVariant(uuid.New().String(), &models.ProductVariant{})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestProductService_Images(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	blob := newFakeBlobStore()
	service := services.NewProductService(repo, blob)

	product := &models.Product{Name: "Peony", Slug: "peony", Price: fptr(5.00)}
	require.NoError(t, repo.Create(product))

	t.Run("attach uploads and appends the URL", func(t *testing.T) {
		updated, err := service.AttachImage(context.Background(), product.ID, "peony.jpg", []byte("image-bytes"), "image/jpeg")
		require.NoError(t, err)
		require.Len(t, updated.Images, 1)
		assert.True(t, strings.HasPrefix(updated.Images[0], "https://cdn.example.com/products/"+product.ID+"/"))
		assert.True(t, strings.HasSuffix(updated.Images[0], ".jpg"))
		assert.Len(t, blob.uploads, 1)
	})

	t.Run("remove detaches and deletes the blob", func(t *testing.T) {
		stored, err := repo.GetByID(product.ID)
		require.NoError(t, err)
		require.Len(t, stored.Images, 1)
		url := stored.Images[0]

		updated, err := service.RemoveImage(context.Background(), product.ID, url)
		require.NoError(t, err)
		assert.Empty(t, updated.Images)
		assert.Contains(t, blob.deleted, url)
	})

	t.Run("blob delete failure does not block the catalog update", func(t *testing.T) {
		updated, err := service.AttachImage(context.Background(), product.ID, "again.png", []byte("x"), "image/png")
		require.NoError(t, err)
		url := updated.Images[0]

		blob.failDelete = true
		updated, err = service.RemoveImage(context.Background(), product.ID, url)
		require.NoError(t, err)
		assert.Empty(t, updated.Images)
	})

	t.Run("attach without configured storage", func(t *testing.T) {
		bare := services.NewProductService(repo, nil)
		_, err := bare.AttachImage(context.Background(), product.ID, "x.jpg", []byte("x"), "image/jpeg")
		assert.Error(t, err)
	})
}

func TestUserService_Admin(t *testing.T) {
	userRepo := repositories.NewMockUserRepository()
	service := services.NewUserService(userRepo)

	customer := approvedUser()
	require.NoError(t, userRepo.Create(customer))

	admin := approvedUser()
	admin.ID = uuid.New().String()
	admin.Email = "admin@example.com"
	admin.Role = models.RoleAdmin
	require.NoError(t, userRepo.Create(admin))

	t.Run("list users is admin only", func(t *testing.T) {
		_, err := service.ListUsers(customer)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

		users, err := service.ListUsers(admin)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("approve", func(t *testing.T) {
		pending := &models.User{Email: "new@example.com", Password: "x"}
		require.NoError(t, userRepo.Create(pending))

		_, err := service.ApproveUser(customer, pending.ID)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

		approved, err := service.ApproveUser(admin, pending.ID)
		require.NoError(t, err)
		assert.True(t, approved.Approved)
	})

	t.Run("multiplier bounds", func(t *testing.T) {
		for _, bad := range []float64{0, 0.49, 20.01, -3} {
			_, err := service.SetPriceMultiplier(admin, customer.ID, bad)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		}

		// The rejected values were never persisted.
		stored, err := userRepo.GetByID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stored.PriceMultiplier)

		updated, err := service.SetPriceMultiplier(admin, customer.ID, 1.5)
		require.NoError(t, err)
		assert.Equal(t, 1.5, updated.PriceMultiplier)
	})

	t.Run("addresses", func(t *testing.T) {
		first := &models.Address{Recipient: "Me", Street: "1 Field Rd", City: "Aalsmeer", PostalCode: "1431", Country: "NL", IsDefault: true}
		second := &models.Address{Recipient: "Me", Street: "2 Canal St", City: "Amsterdam", PostalCode: "1011", Country: "NL", IsDefault: true}
		require.NoError(t, service.AddAddress(customer, first))
		require.NoError(t, service.AddAddress(customer, second))

		addresses, err := service.ListAddresses(customer)
		require.NoError(t, err)
		require.Len(t, addresses, 2)

		// Only the newest default survives.
		assert.Equal(t, second.ID, addresses[0].ID)
		assert.True(t, addresses[0].IsDefault)
		assert.False(t, addresses[1].IsDefault)
	})
}
