package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Brand struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type Product struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	BrandID     uuid.UUID
	Title       string
	Slug        string
	Description string
	ImagePath   string
	Price       decimal.Decimal
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CartTotal decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem belongs to exactly one cart. Position preserves insertion order.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Qty       int
	ItemTotal decimal.Decimal
	Position  int
}

type OrderStatus string

const (
	OrderStatusAccepted   OrderStatus = "accepted for processing"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
)

// nextStatus holds the only allowed forward transitions.
var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusAccepted:   OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusPaid,
}

// CanTransition reports whether an order status may move from to.
func CanTransition(from, to OrderStatus) bool {
	return nextStatus[from] == to
}

type BuyingType string

const (
	BuyingTypeSelfDelivery BuyingType = "self-delivery"
	BuyingTypeDelivery     BuyingType = "delivery"
)

type Order struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CartID       uuid.UUID
	Items        []OrderItem
	Total        decimal.Decimal
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	Comments     string
	BuyingType   BuyingType
	DeliveryDate time.Time
	Status       OrderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem is the frozen copy of a cart line taken at checkout. The cart
// is cleared afterwards; these rows are what the order keeps.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Qty       int
	ItemTotal decimal.Decimal
}

type RestockSubscription struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Email     string
	CreatedAt time.Time
}

type Coupon struct {
	ID        uuid.UUID
	Code      string
	ValidFrom time.Time
	ValidTo   time.Time
	Discount  int
	Active    bool
	CreatedAt time.Time
}

// RestockMessage is published when products transition to available and
// consumed by the notification worker.
type RestockMessage struct {
	EventID    uuid.UUID   `json:"event_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}

type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
