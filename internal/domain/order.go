package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Delivery types and payment methods accepted at checkout.
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"

	PaymentMethodStripe = "stripe"
	PaymentMethodCOD    = "cod"
)

// Order represents a food order, possibly still being assembled
type Order struct {
	ID               int64      `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Total            float64    `json:"total"`
	DeliveryType     string     `json:"delivery_type,omitempty"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`
	DeliveryTimeSlot string     `json:"delivery_time_slot,omitempty"`
	DeliveryAddress  string     `json:"delivery_address,omitempty"`
	DeliveryCity     string     `json:"delivery_city,omitempty"`
	DeliveryPin      string     `json:"delivery_pin,omitempty"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	IsConfirmed      bool       `json:"is_confirmed"`
	Delivered        bool       `json:"delivered"`
	CreatedAt        time.Time  `json:"created_at"`
}

// OrderItem is a single line on an order. Price is the line total
// (unit price x quantity), recomputed on every mutation.
type OrderItem struct {
	ID         int64   `json:"id"`
	OrderID    int64   `json:"order_id"`
	MenuItemID int64   `json:"menu_item_id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

// OrderRepository defines the interface for order storage
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id int64) error
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Order, error)

	ListItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	GetItem(ctx context.Context, orderID, menuItemID int64) (*OrderItem, error)
	UpsertItem(ctx context.Context, item *OrderItem) error
	DeleteItem(ctx context.Context, orderID, menuItemID int64) error
}
