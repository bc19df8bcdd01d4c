package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/avelichko/storefront/internal/dto"
	"github.com/avelichko/storefront/internal/model"
	"github.com/avelichko/storefront/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// OrderQueueName is where placed orders are published for async processing.
const OrderQueueName = "orders"

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	couponSvc *CouponService
	amqpCh    *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, couponSvc *CouponService, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, cartRepo: cartRepo, couponSvc: couponSvc, amqpCh: amqpCh}
}

// Checkout snapshots the user's cart into an order: every cart line is
// copied into an order item before the cart is cleared. The total is copied
// from the cart total, less the coupon discount when a valid code is
// supplied, and the status starts at "accepted for processing".
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*model.Order, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cartWithItems, err := s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if cartWithItems == nil || len(cartWithItems.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := cartWithItems.CartTotal
	if req.CouponCode != "" {
		coupon, err := s.couponSvc.Validate(ctx, req.CouponCode, time.Now())
		if err != nil {
			return nil, err
		}
		total = Apply(coupon, total)
	}

	deliveryDate := req.DeliveryDate
	if deliveryDate.IsZero() {
		deliveryDate = time.Now()
	}

	items := make([]model.OrderItem, 0, len(cartWithItems.Items))
	for _, ci := range cartWithItems.Items {
		items = append(items, model.OrderItem{
			ProductID: ci.ProductID,
			Qty:       ci.Qty,
			ItemTotal: ci.ItemTotal,
		})
	}

	order := &model.Order{
		UserID:       userID,
		CartID:       cart.ID,
		Items:        items,
		Total:        total,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Address:      req.Address,
		Comments:     req.Comments,
		BuyingType:   model.BuyingType(req.BuyingType),
		DeliveryDate: deliveryDate,
		Status:       model.OrderStatusAccepted,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.amqpCh != nil {
		msg, _ := json.Marshal(model.OrderMessage{OrderID: order.ID, UserID: userID})
		_ = s.amqpCh.PublishWithContext(ctx, "", OrderQueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
		})
	}

	_ = s.cartRepo.ClearCart(ctx, cart.ID)
	return order, nil
}

// UpdateStatus moves an order along the accepted → processing → paid chain.
// Any other transition is rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	switch status {
	case model.OrderStatusAccepted, model.OrderStatusProcessing, model.OrderStatusPaid:
	default:
		return nil, ErrInvalidStatus
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !model.CanTransition(order.Status, status) {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}
