package mapbox

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by
// county and state, case-insensitively.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, state string) (domain.GeocodingResult, error) {
	key := strings.ToLower(name) + "|" + strings.ToLower(state)
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, state)
	if err != nil {
		return result, err
	}
	// Only cache matches so a transient "not found" can be retried.
	if result.FormattedAddress != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

// lruCache is a thread-safe LRU cache for GeocodingResults. The list front
// is the most recently used entry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value domain.GeocodingResult
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
