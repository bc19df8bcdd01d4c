package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/storefront/internal/dto"
	"github.com/avelichko/storefront/internal/model"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	copied := *order
	copied.Items = append([]model.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	copied.Items = append([]model.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	if order, ok := m.orders[id]; ok {
		order.Status = status
	}
	return nil
}

type mockCouponRepo struct {
	byCode map[string]*model.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{byCode: make(map[string]*model.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, coupon *model.Coupon) error {
	coupon.ID = uuid.New()
	m.byCode[coupon.Code] = coupon
	return nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	return m.byCode[code], nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	for _, c := range m.byCode {
		coupons = append(coupons, *c)
	}
	return coupons, nil
}

func (m *mockCouponRepo) Delete(_ context.Context, id uuid.UUID) error {
	for code, c := range m.byCode {
		if c.ID == id {
			delete(m.byCode, code)
		}
	}
	return nil
}

func checkoutRequest() dto.CheckoutRequest {
	return dto.CheckoutRequest{
		FirstName:  "John",
		Phone:      "+1234567890",
		BuyingType: string(model.BuyingTypeDelivery),
		Address:    "1 Main St",
	}
}

func seedCart(t *testing.T, cartRepo *mockCartRepo, userID uuid.UUID, total string) *model.Cart {
	t.Helper()
	cart, err := cartRepo.GetOrCreateCart(context.Background(), userID)
	require.NoError(t, err)
	err = cartRepo.AddItem(context.Background(), &model.CartItem{
		CartID:    cart.ID,
		ProductID: uuid.New(),
		Qty:       1,
		ItemTotal: decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	require.NoError(t, cartRepo.SetCartTotal(context.Background(), cart.ID, decimal.RequireFromString(total)))
	return cart
}

func TestOrderService_Checkout(t *testing.T) {
	cartRepo := newMockCartRepo()
	svc := NewOrderService(newMockOrderRepo(), cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()
	cart := seedCart(t, cartRepo, userID, "30.00")

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAccepted, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, model.BuyingTypeDelivery, order.BuyingType)
	assert.False(t, order.DeliveryDate.IsZero())

	// Checkout drains the cart.
	drained, err := cartRepo.GetCartWithItems(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Empty(t, drained.Items)
	assert.True(t, drained.CartTotal.IsZero())
}

func TestOrderService_Checkout_RetainsItemSnapshot(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	svc := NewOrderService(orderRepo, cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()

	cart, err := cartRepo.GetOrCreateCart(context.Background(), userID)
	require.NoError(t, err)
	productID := uuid.New()
	require.NoError(t, cartRepo.AddItem(context.Background(), &model.CartItem{
		CartID: cart.ID, ProductID: productID, Qty: 3,
		ItemTotal: decimal.RequireFromString("30.00"),
	}))
	require.NoError(t, cartRepo.SetCartTotal(context.Background(), cart.ID, decimal.RequireFromString("30.00")))

	first, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	// The purchased lines survive the cart being cleared.
	found, err := svc.GetByID(context.Background(), first.ID, userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, productID, found.Items[0].ProductID)
	assert.Equal(t, 3, found.Items[0].Qty)
	assert.True(t, found.Items[0].ItemTotal.Equal(decimal.RequireFromString("30.00")))

	// A second checkout reuses the cart but snapshots its own lines.
	second := seedCart(t, cartRepo, userID, "5.00")
	assert.Equal(t, cart.ID, second.ID)
	secondOrder, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	found, err = svc.GetByID(context.Background(), secondOrder.ID, userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].ItemTotal.Equal(decimal.RequireFromString("5.00")))

	// The first order's snapshot is untouched by the second checkout.
	found, err = svc.GetByID(context.Background(), first.ID, userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, productID, found.Items[0].ProductID)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockCartRepo(), NewCouponService(newMockCouponRepo()), nil)

	_, err := svc.Checkout(context.Background(), uuid.New(), checkoutRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_Checkout_WithCoupon(t *testing.T) {
	cartRepo := newMockCartRepo()
	couponRepo := newMockCouponRepo()
	require.NoError(t, couponRepo.Create(context.Background(), &model.Coupon{
		Code:      "SAVE10",
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
		Discount:  10,
		Active:    true,
	}))
	svc := NewOrderService(newMockOrderRepo(), cartRepo, NewCouponService(couponRepo), nil)
	userID := uuid.New()
	seedCart(t, cartRepo, userID, "100.00")

	req := checkoutRequest()
	req.CouponCode = "SAVE10"
	order, err := svc.Checkout(context.Background(), userID, req)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("90.00")))
}

func TestOrderService_Checkout_BadCoupon(t *testing.T) {
	cartRepo := newMockCartRepo()
	svc := NewOrderService(newMockOrderRepo(), cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()
	seedCart(t, cartRepo, userID, "100.00")

	req := checkoutRequest()
	req.CouponCode = "NOPE"
	_, err := svc.Checkout(context.Background(), userID, req)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestOrderService_UpdateStatus_Chain(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	svc := NewOrderService(orderRepo, cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()
	seedCart(t, cartRepo, userID, "10.00")

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	order, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)

	order, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestOrderService_UpdateStatus_SkipRejected(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	svc := NewOrderService(orderRepo, cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()
	seedCart(t, cartRepo, userID, "10.00")

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	// accepted → paid skips processing and is rejected.
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Backwards is rejected too.
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_UpdateStatus_UnknownStatus(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockCartRepo(), NewCouponService(newMockCouponRepo()), nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatus("shipped"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockCartRepo(), NewCouponService(newMockCouponRepo()), nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatusProcessing)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_GetByID_AccessDenied(t *testing.T) {
	orderRepo := newMockOrderRepo()
	cartRepo := newMockCartRepo()
	svc := NewOrderService(orderRepo, cartRepo, NewCouponService(newMockCouponRepo()), nil)
	userID := uuid.New()
	seedCart(t, cartRepo, userID, "10.00")

	order, err := svc.Checkout(context.Background(), userID, checkoutRequest())
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	got, err := svc.GetByID(context.Background(), order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockCartRepo(), NewCouponService(newMockCouponRepo()), nil)

	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
