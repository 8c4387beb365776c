package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"cargo-inventory-backend/internal/model"
)

// Cached wraps a Directory with an in-memory TTL cache. Storage units are
// never cached because they carry running usage totals.
type Cached struct {
	next  Directory
	store *cache.Cache
	ttl   time.Duration
}

var _ Directory = (*Cached)(nil)

// NewCached creates a caching Directory in front of next.
func NewCached(next Directory, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func cached[T any](c *Cached, key string, load func() (*T, error)) (*T, error) {
	if v, found := c.store.Get(key); found {
		copied := v.(T)
		return &copied, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.store.Set(key, *v, c.ttl)
	return v, nil
}

func (c *Cached) GetCargo(ctx context.Context, id int64) (*model.Cargo, error) {
	return cached(c, fmt.Sprintf("cargo:%d", id), func() (*model.Cargo, error) {
		return c.next.GetCargo(ctx, id)
	})
}

func (c *Cached) GetStorageUnit(ctx context.Context, id int64) (*model.StorageUnit, error) {
	return c.next.GetStorageUnit(ctx, id)
}

func (c *Cached) GetSpacecraft(ctx context.Context, id int64) (*model.Spacecraft, error) {
	return cached(c, fmt.Sprintf("spacecraft:%d", id), func() (*model.Spacecraft, error) {
		return c.next.GetSpacecraft(ctx, id)
	})
}

func (c *Cached) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return cached(c, fmt.Sprintf("user:%d", id), func() (*model.User, error) {
		return c.next.GetUser(ctx, id)
	})
}

// Flush drops every cached entity.
func (c *Cached) Flush() {
	c.store.Flush()
}
