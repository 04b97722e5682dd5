package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/fitstore/internal/catalog"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/go-chi/chi/v5"
)

type Catalog interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
	Refresh(ctx context.Context) ([]domain.CatalogItem, error)
	Get(ctx context.Context, id string) (domain.CatalogItem, error)
}

type FilterReader interface {
	Filters() domain.Filters
}

type CatalogHandler struct {
	catalog Catalog
	filters FilterReader
	timeout time.Duration
}

func NewCatalogHandler(c Catalog, filters FilterReader, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: c,
		filters: filters,
		timeout: timeout,
	}
}

type CatalogResponseDTO struct {
	Items            []domain.CatalogItem `json:"items"`
	Count            int                  `json:"count"`
	Available        int                  `json:"available"`
	Filters          domain.Filters       `json:"filters"`
	HasActiveFilters bool                 `json:"has_active_filters"`
}

// GET /api/v1/catalog
// The list is narrowed by the current filters unless ?all=true is given.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.List(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(items, r.URL.Query().Get("all") == "true"))
}

// POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.Refresh(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.view(items, false))
}

// GET /api/v1/catalog/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) view(items []domain.CatalogItem, all bool) CatalogResponseDTO {
	f := h.filters.Filters()
	shown := items
	if !all {
		shown = catalog.Filter(items, f)
	}
	return CatalogResponseDTO{
		Items:            shown,
		Count:            len(shown),
		Available:        len(items),
		Filters:          f,
		HasActiveFilters: f.IsActive(),
	}
}
