package apiclient

import (
	"sync"
	"time"
)

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// responseCache stores successful GET responses keyed by URL until their TTL
// elapses.
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]cacheEntry)}
}

// get returns a copy of the cached response for url, marked FromCache. Expired
// entries are evicted on read.
func (c *responseCache) get(url string, now time.Time) (*Response, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !now.Before(entry.expiresAt) {
		c.mu.Lock()
		if e, ok := c.entries[url]; ok && e.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, url)
		}
		c.mu.Unlock()
		return nil, false
	}

	cp := cloneResponse(entry.resp)
	cp.FromCache = true
	return cp, true
}

func (c *responseCache) set(url string, resp *Response, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[url] = cacheEntry{resp: cloneResponse(resp), expiresAt: expiresAt}
	c.mu.Unlock()
}

// cloneResponse deep-copies the header and body so cached data is never
// shared with callers; a caller mutating its response must not corrupt
// later cache hits.
func cloneResponse(resp *Response) *Response {
	cp := *resp
	cp.Header = resp.Header.Clone()
	if resp.Body != nil {
		cp.Body = append([]byte(nil), resp.Body...)
	}
	return &cp
}

func (c *responseCache) invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}
