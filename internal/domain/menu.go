package domain

import "context"

// Category groups menu items
type Category struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// MenuItem represents a dish available for ordering
type MenuItem struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Featured    bool    `json:"featured"`
}

// MenuRepository defines the interface for menu storage
type MenuRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListItems(ctx context.Context) ([]MenuItem, error)
	ListFeatured(ctx context.Context) ([]MenuItem, error)
	GetItemByTitle(ctx context.Context, title string) (*MenuItem, error)
}
