package cache

import (
	"context"
	"time"

	"supermart/backend/internal/domain"
)

// CatalogCache holds aisle listings, the hottest read path on the floor
// displays. Entries are short-lived and invalidated on catalog writes.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.AisleListing, bool, error)
	Set(ctx context.Context, key string, value []domain.AisleListing, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) ([]domain.AisleListing, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ []domain.AisleListing, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
