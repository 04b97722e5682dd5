package cache

import (
	"context"
	"errors"

	"github.com/fjod/fitstore/internal/domain"
)

type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.CatalogItem, error)
	Set(ctx context.Context, key string, items []domain.CatalogItem) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Nop never stores anything; every Get is a miss.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]domain.CatalogItem, error) {
	return nil, ErrCacheMiss
}

func (Nop) Set(context.Context, string, []domain.CatalogItem) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }
