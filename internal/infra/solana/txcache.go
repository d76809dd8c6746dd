// internal/infra/solana/txcache.go
package solana

import (
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/types"
)

// sentTx は idempotency key ごとに保持する署名済みトランザクションです。
// 同じ key の再試行では同じ tx（= 同じ署名）を再送するので、チェーン側で二重実行されない。
type sentTx struct {
	tx        types.Transaction
	signature string
	confirmed bool
	createdAt time.Time
}

type txCache struct {
	mu    sync.Mutex
	items map[string]*sentTx
	ttl   time.Duration
	now   func() time.Time
}

func newTxCache(ttl time.Duration) *txCache {
	return &txCache{
		items: map[string]*sentTx{},
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *txCache) get(key string) (sentTx, bool) {
	if key == "" {
		return sentTx{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	it, ok := c.items[key]
	if !ok {
		return sentTx{}, false
	}
	return *it, true
}

func (c *txCache) put(key string, tx types.Transaction, sig string) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &sentTx{tx: tx, signature: sig, createdAt: c.now()}
}

func (c *txCache) markConfirmed(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items[key]; ok {
		it.confirmed = true
	}
}

func (c *txCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *txCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *txCache) evictLocked() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	for k, it := range c.items {
		if it.createdAt.Before(cutoff) {
			delete(c.items, k)
		}
	}
}
