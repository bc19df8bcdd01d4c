package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelichko/storefront/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	PasswordCheck string `json:"password_check" binding:"required"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

// --- Catalog ---

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type CreateBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

type BrandResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CreateProductRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	BrandID     uuid.UUID       `json:"brand_id" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Slug        string          `json:"slug" binding:"required"`
	Description string          `json:"description" binding:"required"`
	ImageName   string          `json:"image_name"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Available   bool            `json:"available"`
}

type UpdateProductRequest struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	BrandID     *uuid.UUID       `json:"brand_id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=title price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	BrandID     uuid.UUID       `json:"brand_id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	ImagePath   string          `json:"image_path"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductSlug string `json:"product_slug" binding:"required"`
}

type RemoveCartItemRequest struct {
	ProductSlug string `json:"product_slug" binding:"required"`
}

type ChangeQtyRequest struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Items     []CartItemResponse `json:"items"`
	CartTotal decimal.Decimal    `json:"cart_total"`
}

type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Qty       int             `json:"qty"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

// --- Order ---

// CheckoutRequest mirrors the storefront order form: name and phone are
// required, everything else is optional except the buying type choice.
type CheckoutRequest struct {
	FirstName    string    `json:"first_name" binding:"required"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone" binding:"required"`
	BuyingType   string    `json:"buying_type" binding:"required,oneof=self-delivery delivery"`
	DeliveryDate time.Time `json:"delivery_date"`
	Address      string    `json:"address"`
	Comments     string    `json:"comments"`
	CouponCode   string    `json:"coupon_code"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Qty       int             `json:"qty"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Items        []OrderItemResponse `json:"items"`
	Total        decimal.Decimal     `json:"total"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	Comments     string              `json:"comments"`
	BuyingType   model.BuyingType    `json:"buying_type"`
	DeliveryDate time.Time           `json:"delivery_date"`
	Status       model.OrderStatus   `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Subscriptions / admin ---

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type MakeAvailableRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

type MakeAvailableResponse struct {
	Updated  []uuid.UUID `json:"updated"`
	Notified bool        `json:"notified"`
}

// --- Coupon ---

type CreateCouponRequest struct {
	Code      string    `json:"code" binding:"required"`
	ValidFrom time.Time `json:"valid_from" binding:"required"`
	ValidTo   time.Time `json:"valid_to" binding:"required"`
	Discount  int       `json:"discount" binding:"min=0,max=100"`
	Active    bool      `json:"active"`
}

type CouponResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	Discount  int       `json:"discount"`
	Active    bool      `json:"active"`
}
