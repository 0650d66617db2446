package web_fetch

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
)

// CachedFetcher memoises successful fetches by canonical URL so that the
// url, onpage and competitors collectors share one download per page.
type CachedFetcher struct {
	next  Fetcher
	cache *expirable.LRU[string, string]
}

func NewCachedFetcher(next Fetcher, size int, ttl time.Duration) *CachedFetcher {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedFetcher{next: next, cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	key, err := helpers.CanonicalURL(url)
	if err != nil {
		key = url
	}
	if html, ok := c.cache.Get(key); ok {
		return html, nil
	}
	html, err := c.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, html)
	return html, nil
}
