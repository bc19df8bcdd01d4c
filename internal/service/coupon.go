package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelichko/storefront/internal/dto"
	"github.com/avelichko/storefront/internal/model"
	"github.com/avelichko/storefront/internal/repository"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponInactive = errors.New("coupon is not active")
	ErrCouponExpired  = errors.New("coupon is outside its validity window")
)

type CouponService struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate returns the coupon if the code is active and within its validity
// window at the given time.
func (s *CouponService) Validate(ctx context.Context, code string, now time.Time) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.Active {
		return nil, ErrCouponInactive
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidTo) {
		return nil, ErrCouponExpired
	}
	return coupon, nil
}

// Apply reduces total by the coupon's percentage discount, clamped to
// [0, 100], rounding to 2 decimal places.
func Apply(coupon *model.Coupon, total decimal.Decimal) decimal.Decimal {
	discount := coupon.Discount
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
	return total.Mul(factor).Round(2)
}

func (s *CouponService) Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	coupon := &model.Coupon{
		Code:      req.Code,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
		Discount:  req.Discount,
		Active:    req.Active,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	resp := toCouponResponse(coupon)
	return &resp, nil
}

func (s *CouponService) List(ctx context.Context) ([]dto.CouponResponse, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	items := make([]dto.CouponResponse, 0, len(coupons))
	for _, c := range coupons {
		items = append(items, toCouponResponse(&c))
	}
	return items, nil
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

func toCouponResponse(c *model.Coupon) dto.CouponResponse {
	return dto.CouponResponse{
		ID:        c.ID,
		Code:      c.Code,
		ValidFrom: c.ValidFrom,
		ValidTo:   c.ValidTo,
		Discount:  c.Discount,
		Active:    c.Active,
	}
}
