package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rasoi/chaatbot/internal/domain"
)

// OrderRepository implements domain.OrderRepository
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	// created_at comes from the schema default
	query := `
		INSERT INTO orders (user_id, total, is_confirmed, delivered)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		order.UserID,
		order.Total,
		order.IsConfirmed,
		order.Delivered,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, user_id, total, delivery_type, delivery_date, delivery_time_slot,
		       delivery_address, delivery_city, delivery_pin, payment_method,
		       is_confirmed, delivered, created_at
		FROM orders
		WHERE id = $1
	`
	var o domain.Order
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Total, &o.DeliveryType, &o.DeliveryDate, &o.DeliveryTimeSlot,
		&o.DeliveryAddress, &o.DeliveryCity, &o.DeliveryPin, &o.PaymentMethod,
		&o.IsConfirmed, &o.Delivered, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET total = $2, delivery_type = $3, delivery_date = $4, delivery_time_slot = $5,
		    delivery_address = $6, delivery_city = $7, delivery_pin = $8,
		    payment_method = $9, is_confirmed = $10, delivered = $11
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		order.ID, order.Total, order.DeliveryType, order.DeliveryDate, order.DeliveryTimeSlot,
		order.DeliveryAddress, order.DeliveryCity, order.DeliveryPin,
		order.PaymentMethod, order.IsConfirmed, order.Delivered,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, total, delivery_type, delivery_date, delivery_time_slot,
		       delivery_address, delivery_city, delivery_pin, payment_method,
		       is_confirmed, delivered, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Total, &o.DeliveryType, &o.DeliveryDate, &o.DeliveryTimeSlot,
			&o.DeliveryAddress, &o.DeliveryCity, &o.DeliveryPin, &o.PaymentMethod,
			&o.IsConfirmed, &o.Delivered, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.menu_item_id, mi.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := r.db.Pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Title, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) GetItem(ctx context.Context, orderID, menuItemID int64) (*domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.menu_item_id, mi.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1 AND oi.menu_item_id = $2
	`
	var it domain.OrderItem
	err := r.db.Pool.QueryRow(ctx, query, orderID, menuItemID).Scan(
		&it.ID, &it.OrderID, &it.MenuItemID, &it.Title, &it.Quantity, &it.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return &it, nil
}

// UpsertItem inserts an order line or replaces the quantity/price of an
// existing one. The (order_id, menu_item_id) pair is unique.
func (r *OrderRepository) UpsertItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id, menu_item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, price = EXCLUDED.price
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		item.OrderID, item.MenuItemID, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert order item: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeleteItem(ctx context.Context, orderID, menuItemID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM order_items WHERE order_id = $1 AND menu_item_id = $2`, orderID, menuItemID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
