package catalog

import (
	"slices"
	"strings"

	"github.com/fjod/fitstore/internal/domain"
	"golang.org/x/text/cases"
)

// Matches reports whether item passes every active filter.
func Matches(item domain.CatalogItem, f domain.Filters) bool {
	if f.Search != "" {
		fold := cases.Fold()
		q := fold.String(f.Search)
		if !strings.Contains(fold.String(item.Name), q) &&
			!strings.Contains(fold.String(item.Description), q) {
			return false
		}
	}

	if item.Fitcoins < f.MinPrice || item.Fitcoins > f.MaxPrice {
		return false
	}

	// an item without a category is not a member of any non-empty set
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, item.Category) {
		return false
	}

	// size and brand only constrain items that declare them
	if len(f.Sizes) > 0 && item.Size != "" && !slices.Contains(f.Sizes, item.Size) {
		return false
	}
	if f.Brand != "" && item.Brand != "" && item.Brand != f.Brand {
		return false
	}

	return true
}

// Filter keeps the source order.
func Filter(items []domain.CatalogItem, f domain.Filters) []domain.CatalogItem {
	out := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		if Matches(item, f) {
			out = append(out, item)
		}
	}
	return out
}
