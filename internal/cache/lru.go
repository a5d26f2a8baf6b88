package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruItem wraps the encoded value and its expiry
type lruItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// LRU is an in-process cache bounded by entry count
type LRU struct {
	entries *lru.Cache[string, lruItem]
	ttl     time.Duration
	now     func() time.Time

	// mu orders Set against Invalidate; gens is guarded by it
	mu   sync.Mutex
	gens map[Namespace]Generation
}

// NewLRU creates an LRU holding at most size entries. A zero ttl keeps
// entries until they are evicted or invalidated.
func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	l, err := lru.New[string, lruItem](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: l, ttl: ttl, now: time.Now, gens: make(map[Namespace]Generation)}, nil
}

func lruKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}

// Generation returns how many times ns has been invalidated
func (c *LRU) Generation(_ context.Context, ns Namespace) (Generation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ns], nil
}

// Get returns the entry, dropping it when expired
func (c *LRU) Get(_ context.Context, ns Namespace, key string, dest interface{}) (bool, error) {
	k := lruKey(ns, key)
	item, ok := c.entries.Get(k)
	if !ok {
		return false, nil
	}

	if !item.ExpiresAt.IsZero() && c.now().After(item.ExpiresAt) {
		c.entries.Remove(k)
		return false, nil
	}

	if err := decode(item.Data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores the entry with the configured TTL. The entry is dropped when
// ns was invalidated after gen was read.
func (c *LRU) Set(_ context.Context, ns Namespace, key string, value interface{}, gen Generation) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	item := lruItem{Data: data}
	if c.ttl > 0 {
		item.ExpiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[ns] != gen {
		return nil
	}
	c.entries.Add(lruKey(ns, key), item)
	return nil
}

// Invalidate removes every key under the given namespaces
func (c *LRU) Invalidate(_ context.Context, namespaces ...Namespace) error {
	targets := make(map[Namespace]struct{}, len(namespaces))
	for _, ns := range namespaces {
		targets[ns] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for ns := range targets {
		c.gens[ns]++
	}

	if coversAll(targets) {
		c.entries.Purge()
		return nil
	}
	for _, k := range c.entries.Keys() {
		for ns := range targets {
			if strings.HasPrefix(k, string(ns)+":") {
				c.entries.Remove(k)
				break
			}
		}
	}
	return nil
}

func coversAll(targets map[Namespace]struct{}) bool {
	for _, ns := range Namespaces {
		if _, ok := targets[ns]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of stored entries
func (c *LRU) Len() int {
	return c.entries.Len()
}

func (c *LRU) Close() error {
	c.entries.Purge()
	return nil
}
