package handler

import (
	"net/http"

	"github.com/rasoi/chaatbot/internal/api/response"
	"github.com/rasoi/chaatbot/internal/domain"
)

// MenuHandler serves the public menu
type MenuHandler struct {
	menuRepo domain.MenuRepository
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuRepo domain.MenuRepository) *MenuHandler {
	return &MenuHandler{menuRepo: menuRepo}
}

// Menu returns categories, the full item list and today's featured dishes
func (h *MenuHandler) Menu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.menuRepo.ListCategories(ctx)
	if err != nil {
		response.InternalError(w, "failed to load menu")
		return
	}

	items, err := h.menuRepo.ListItems(ctx)
	if err != nil {
		response.InternalError(w, "failed to load menu")
		return
	}

	featured, err := h.menuRepo.ListFeatured(ctx)
	if err != nil {
		response.InternalError(w, "failed to load menu")
		return
	}

	response.OK(w, map[string]any{
		"categories": categories,
		"items":      items,
		"featured":   featured,
	})
}
