package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/fjod/fitstore/internal/cache"
	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"golang.org/x/sync/singleflight"
)

const DefaultLimit = 100

var ErrItemNotFound = errors.New("catalog item not found")

type Fetcher interface {
	ListPremios(ctx context.Context, limit int) ([]client.Premio, error)
}

// Source serves the remote catalog. The list is replaced wholesale on every fetch.
type Source struct {
	fetcher Fetcher
	cache   cache.CatalogCache
	limit   int
	logger  *slog.Logger
	sfg     singleflight.Group // collapses concurrent misses into one fetch
}

func NewSource(fetcher Fetcher, c cache.CatalogCache, limit int, logger *slog.Logger) *Source {
	if c == nil {
		c = cache.Nop{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Source{
		fetcher: fetcher,
		cache:   c,
		limit:   limit,
		logger:  logger,
	}
}

func (s *Source) List(ctx context.Context) ([]domain.CatalogItem, error) {
	key := s.cacheKey()
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, key)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "catalog cache get failed", "error", err)
		}

		premios, err := s.fetcher.ListPremios(ctx, s.limit)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
		items = ToCatalogItems(premios)

		go func() {
			if err := s.cache.Set(context.Background(), key, items); err != nil {
				s.logger.Warn("catalog cache set failed", "error", err)
			}
		}()

		return items, nil
	})
	if err != nil {
		return nil, err
	}

	// callers must not share the singleflight result
	items := v.([]domain.CatalogItem)
	return append([]domain.CatalogItem(nil), items...), nil
}

// Refresh drops the cached list and fetches it again.
func (s *Source) Refresh(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidate failed", "error", err)
	}
	return s.List(ctx)
}

// Invalidate drops the cached list so the next List fetches it again.
func (s *Source) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.cacheKey())
}

func (s *Source) Get(ctx context.Context, id string) (domain.CatalogItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.CatalogItem{}, ErrItemNotFound
}

func (s *Source) cacheKey() string {
	return fmt.Sprintf("catalog:%d", s.limit)
}

// ToCatalogItems maps the wire shape and drops inactive items.
func ToCatalogItems(premios []client.Premio) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(premios))
	for _, p := range premios {
		if p.IsActive != nil && !*p.IsActive {
			continue
		}
		items = append(items, domain.CatalogItem{
			ID:          strconv.FormatInt(p.ID, 10),
			Name:        p.Nombre,
			Description: deref(p.Descripcion),
			Fitcoins:    p.CostoFitcoins,
			Stock:       p.Stock,
			Category:    orDefault(deref(p.Categoria), domain.DefaultCategory),
			Size:        deref(p.Talla),
			Brand:       deref(p.Marca),
			ImageURL:    deref(p.ImageURL),
		})
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
