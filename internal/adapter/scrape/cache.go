package scrape

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
)

// CachedLocator remembers lookups per URL, found or not. Errors are not
// cached so a later record can retry the URL.
type CachedLocator struct {
	inner   domain.Locator
	metrics *observability.Metrics

	mu      sync.Mutex
	max     int
	order   *list.List // front is most recently used
	entries map[string]*list.Element
}

type cacheEntry struct {
	url string
	loc domain.Location
}

// NewCachedLocator wraps inner with an LRU holding at most maxEntries URLs.
func NewCachedLocator(inner domain.Locator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	return &CachedLocator{
		inner:   inner,
		metrics: metrics,
		max:     max(maxEntries, 1),
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *CachedLocator) Locate(ctx context.Context, url string) (domain.Location, error) {
	if loc, ok := c.get(url); ok {
		c.metrics.ScrapeCache.WithLabelValues("hit").Inc()
		return loc, nil
	}
	c.metrics.ScrapeCache.WithLabelValues("miss").Inc()

	loc, err := c.inner.Locate(ctx, url)
	if err != nil {
		return loc, err
	}
	c.put(url, loc)
	return loc, nil
}

// Len reports the number of cached URLs.
func (c *CachedLocator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedLocator) get(url string) (domain.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[url]
	if !ok {
		return domain.Location{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).loc, true
}

func (c *CachedLocator) put(url string, loc domain.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[url]; ok {
		el.Value.(*cacheEntry).loc = loc
		c.order.MoveToFront(el)
		return
	}
	c.entries[url] = c.order.PushFront(&cacheEntry{url: url, loc: loc})

	for c.order.Len() > c.max {
		oldest := c.order.Back()
		delete(c.entries, oldest.Value.(*cacheEntry).url)
		c.order.Remove(oldest)
	}
}
