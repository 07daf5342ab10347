package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rasoi/chaatbot/internal/domain"
)

// MenuRepository implements domain.MenuRepository
type MenuRepository struct {
	db *DB
}

// NewMenuRepository creates a new menu repository
func NewMenuRepository(db *DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, slug, title FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *MenuRepository) ListItems(ctx context.Context) ([]domain.MenuItem, error) {
	return r.listItems(ctx,
		`SELECT id, category_id, title, description, price, featured FROM menu_items ORDER BY title`)
}

func (r *MenuRepository) ListFeatured(ctx context.Context) ([]domain.MenuItem, error) {
	return r.listItems(ctx,
		`SELECT id, category_id, title, description, price, featured FROM menu_items WHERE featured ORDER BY title`)
}

func (r *MenuRepository) listItems(ctx context.Context, query string) ([]domain.MenuItem, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Title, &m.Description, &m.Price, &m.Featured); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *MenuRepository) GetItemByTitle(ctx context.Context, title string) (*domain.MenuItem, error) {
	query := `
		SELECT id, category_id, title, description, price, featured
		FROM menu_items
		WHERE lower(title) = lower($1)
	`
	var m domain.MenuItem
	err := r.db.Pool.QueryRow(ctx, query, title).Scan(
		&m.ID, &m.CategoryID, &m.Title, &m.Description, &m.Price, &m.Featured,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return &m, nil
}
