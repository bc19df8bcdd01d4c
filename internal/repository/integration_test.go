package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/storefront/internal/model"
)

func seedCatalog(t *testing.T) (*model.Category, *model.Brand) {
	t.Helper()
	ctx := context.Background()

	category := &model.Category{Name: "Notebooks", Slug: "notebooks"}
	require.NoError(t, NewCategoryRepository(testPool).Create(ctx, category))

	brand := &model.Brand{Name: "Acme"}
	require.NoError(t, NewBrandRepository(testPool).Create(ctx, brand))

	return category, brand
}

func seedProduct(t *testing.T, slug string, price string, available bool) *model.Product {
	t.Helper()
	category, brand := seedCatalog(t)

	product := &model.Product{
		CategoryID:  category.ID,
		BrandID:     brand.ID,
		Title:       slug,
		Slug:        slug,
		Description: "d",
		Price:       decimal.RequireFromString(price),
		Available:   available,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), product))
	return product
}

func seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "hashed",
		FirstName: "Test",
		Role:      "customer",
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func TestUserRepo_CreateAndGetByUsername(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "john")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByUsername(ctx, "john")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	product := seedProduct(t, "widget-a", "29.99", true)
	assert.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.GetBySlug(ctx, "widget-a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("29.99")))

	product.Title = "Updated"
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Title)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_SetAvailable_ReturnsTransitionedOnly(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	category, brand := seedCatalog(t)
	hidden := &model.Product{
		CategoryID: category.ID, BrandID: brand.ID,
		Title: "hidden", Slug: "hidden", Description: "d",
		Price: decimal.RequireFromString("5.00"), Available: false,
	}
	require.NoError(t, repo.Create(ctx, hidden))
	visible := &model.Product{
		CategoryID: category.ID, BrandID: brand.ID,
		Title: "visible", Slug: "visible", Description: "d",
		Price: decimal.RequireFromString("5.00"), Available: true,
	}
	require.NoError(t, repo.Create(ctx, visible))

	changed, err := repo.SetAvailable(ctx, []uuid.UUID{hidden.ID, visible.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{hidden.ID}, changed)

	found, err := repo.GetByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.True(t, found.Available)
}

func TestCartRepo_AddAndGetItems(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories", "users")

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "cartuser")
	product := seedProduct(t, "widget-a", "15.00", true)

	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	// A second call returns the same cart, not a new one.
	again, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Qty: 2,
		ItemTotal: decimal.RequireFromString("30.00"),
	}))
	require.NoError(t, cartRepo.SetCartTotal(ctx, cart.ID, decimal.RequireFromString("30.00")))

	cartWithItems, err := cartRepo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cartWithItems.Items, 1)
	assert.Equal(t, 2, cartWithItems.Items[0].Qty)
	assert.True(t, cartWithItems.CartTotal.Equal(decimal.RequireFromString("30.00")))

	require.NoError(t, cartRepo.ClearCart(ctx, cart.ID))
	cleared, err := cartRepo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.True(t, cleared.CartTotal.IsZero())
}

func TestCartRepo_ItemsKeepInsertionOrder(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "orderly")
	category, brand := seedCatalog(t)

	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	slugs := []string{"first", "second", "third"}
	for _, slug := range slugs {
		product := &model.Product{
			CategoryID: category.ID, BrandID: brand.ID,
			Title: slug, Slug: slug, Description: "d",
			Price: decimal.RequireFromString("1.00"), Available: true,
		}
		require.NoError(t, productRepo.Create(ctx, product))
		require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
			CartID: cart.ID, ProductID: product.ID, Qty: 1,
			ItemTotal: product.Price,
		}))
	}

	cartWithItems, err := cartRepo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, cartWithItems.Items, 3)
	for i, item := range cartWithItems.Items {
		assert.Equal(t, i, item.Position)
	}
}

func TestOrderRepo_CreateAndUpdateStatus(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories", "users")

	orderRepo := NewOrderRepository(testPool)
	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := seedUser(t, "buyer")
	product := seedProduct(t, "widget-a", "10.00", true)
	cart, err := cartRepo.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	order := &model.Order{
		UserID: user.ID,
		CartID: cart.ID,
		Items: []model.OrderItem{
			{ProductID: product.ID, Qty: 3, ItemTotal: decimal.RequireFromString("30.00")},
		},
		Total:        decimal.RequireFromString("30.00"),
		FirstName:    "John",
		Phone:        "+1234567890",
		Address:      "1 Main St",
		BuyingType:   model.BuyingTypeDelivery,
		DeliveryDate: time.Now().Add(24 * time.Hour),
		Status:       model.OrderStatusAccepted,
	}
	require.NoError(t, orderRepo.Create(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.ID, found.Items[0].ProductID)
	assert.True(t, found.Items[0].ItemTotal.Equal(decimal.RequireFromString("30.00")))

	orders, err := orderRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Total.Equal(decimal.RequireFromString("30.00")))
}

func TestSubscriptionRepo_UpsertListDelete(t *testing.T) {
	cleanupTable(t, "restock_subscriptions", "order_items", "orders", "cart_items", "carts", "products", "brands", "categories")

	repo := NewSubscriptionRepository(testPool)
	ctx := context.Background()

	product := seedProduct(t, "widget-a", "10.00", false)

	sub := &model.RestockSubscription{ProductID: product.ID, Email: "a@example.com"}
	require.NoError(t, repo.Upsert(ctx, sub))

	// Same product and address again keeps a single row.
	dup := &model.RestockSubscription{ProductID: product.ID, Email: "a@example.com"}
	require.NoError(t, repo.Upsert(ctx, dup))

	subs, err := repo.ListByProductIDs(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "a@example.com", subs[0].Email)

	require.NoError(t, repo.Delete(ctx, subs[0].ID))
	subs, err = repo.ListByProductIDs(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCouponRepo_CreateAndGetByCode(t *testing.T) {
	cleanupTable(t, "coupons")

	repo := NewCouponRepository(testPool)
	ctx := context.Background()

	coupon := &model.Coupon{
		Code:      "SAVE10",
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
		Discount:  10,
		Active:    true,
	}
	require.NoError(t, repo.Create(ctx, coupon))
	assert.NotEqual(t, uuid.Nil, coupon.ID)

	found, err := repo.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 10, found.Discount)

	missing, err := repo.GetByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
