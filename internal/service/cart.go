package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelichko/storefront/internal/model"
	"github.com/avelichko/storefront/internal/repository"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrWrongCart        = errors.New("item does not belong to this cart")
	ErrInvalidQty       = errors.New("quantity must be at least 1")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}

// AddItem puts the product identified by slug into the user's cart. Adding a
// product that is already present is a no-op for membership; the cart total
// is recomputed either way.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, productSlug string) (*model.Cart, error) {
	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	cartWithItems, err := s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}

	present := false
	for _, item := range cartWithItems.Items {
		if item.ProductID == product.ID {
			present = true
			break
		}
	}
	if !present {
		item := &model.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Qty:       1,
			ItemTotal: product.Price,
		}
		if err := s.cartRepo.AddItem(ctx, item); err != nil {
			return nil, fmt.Errorf("add cart item: %w", err)
		}
	}

	return s.recomputeTotal(ctx, cart.ID)
}

// RemoveItem takes the first line item matching the product out of the cart.
// Removing a product that is not in the cart is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, productSlug string) (*model.Cart, error) {
	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	cartWithItems, err := s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}

	for _, item := range cartWithItems.Items {
		if item.ProductID == product.ID {
			if err := s.cartRepo.DeleteItem(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("delete cart item: %w", err)
			}
			break
		}
	}

	return s.recomputeTotal(ctx, cart.ID)
}

// ChangeQuantity sets the quantity of a line item and recomputes its total as
// qty × product price, then the cart total as the sum of all line totals.
func (s *CartService) ChangeQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*model.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQty
	}

	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if item.CartID != cart.ID {
		return nil, ErrWrongCart
	}

	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	item.Qty = qty
	item.ItemTotal = product.Price.Mul(decimal.NewFromInt(int64(qty)))
	if err := s.cartRepo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return s.recomputeTotal(ctx, cart.ID)
}

func (s *CartService) recomputeTotal(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetCartWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(item.ItemTotal)
	}
	if err := s.cartRepo.SetCartTotal(ctx, cartID, total); err != nil {
		return nil, fmt.Errorf("set cart total: %w", err)
	}
	cart.CartTotal = total
	return cart, nil
}
