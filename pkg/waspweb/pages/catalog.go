package pages

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

const (
	catalogCacheSize = 16
	// DefaultCatalogTTL is how long category lists are served from memory.
	DefaultCatalogTTL = 5 * time.Minute
)

const (
	categoriesKey    = "categories"
	subcategoriesKey = "subcategories"
)

// CategorySource is the part of the script repository the catalog reads.
type CategorySource interface {
	ListCategories(ctx context.Context) ([]waspweb.Category, error)
	ListSubCategories(ctx context.Context) ([]waspweb.SubCategory, error)
}

type cachedList struct {
	value     interface{}
	timestamp time.Time
}

// Catalog serves the category and subcategory reference tables through an
// LRU cache with a time to live.
type Catalog struct {
	source CategorySource
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

// NewCatalog creates a Catalog reading from source. A ttl of zero uses
// DefaultCatalogTTL; a negative ttl disables caching.
func NewCatalog(source CategorySource, ttl time.Duration) *Catalog {
	cache, _ := lru.New(catalogCacheSize)
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{
		source: source,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Catalog) ListCategories(ctx context.Context) ([]waspweb.Category, error) {
	if v, ok := c.lookup(categoriesKey); ok {
		return v.([]waspweb.Category), nil
	}
	categories, err := c.source.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.store(categoriesKey, categories)
	return categories, nil
}

func (c *Catalog) ListSubCategories(ctx context.Context) ([]waspweb.SubCategory, error) {
	if v, ok := c.lookup(subcategoriesKey); ok {
		return v.([]waspweb.SubCategory), nil
	}
	subcategories, err := c.source.ListSubCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.store(subcategoriesKey, subcategories)
	return subcategories, nil
}

// Invalidate drops every cached list.
func (c *Catalog) Invalidate() {
	c.cache.Purge()
}

func (c *Catalog) lookup(key string) (interface{}, bool) {
	if c.ttl < 0 {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cachedList)
	if c.now().Sub(entry.timestamp) > c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *Catalog) store(key string, value interface{}) {
	if c.ttl < 0 {
		return
	}
	c.cache.Add(key, cachedList{value: value, timestamp: c.now()})
}
