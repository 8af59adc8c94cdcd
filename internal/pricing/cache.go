package pricing

import (
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// priceCache holds resolved USD prices for a short TTL. Entries are
// immutable once written and evicted when read past their deadline.
type priceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]priceEntry

	now func() time.Time
}

type priceEntry struct {
	price     float64
	fetchedAt time.Time
}

func newPriceCache(ttl time.Duration) *priceCache {
	return &priceCache{
		ttl:     ttl,
		entries: make(map[string]priceEntry),
		now:     time.Now,
	}
}

func cacheKey(token common.Address) string {
	return strings.ToLower(token.Hex())
}

func (c *priceCache) get(token common.Address) (float64, bool) {
	key := cacheKey(token)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return 0, false
	}
	return entry.price, true
}

func (c *priceCache) put(token common.Address, price float64) {
	c.mu.Lock()
	c.entries[cacheKey(token)] = priceEntry{price: price, fetchedAt: c.now()}
	c.mu.Unlock()
}
