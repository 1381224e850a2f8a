package prob

import (
	"sync"

	"github.com/domino14/dicebag/dice"
)

type cacheKey struct {
	dice dice.Key
	k    int
}

// Cache memoizes PMF and CDF values across calculators. Entries are keyed
// by the structural triple of a dice expression plus the queried result, so
// equal-named dice share entries no matter which calculator instance asked
// first. Recomputing a key always yields the same value; the mutex only
// prevents torn map writes when callers (such as the NATS worker) overlap.
//
// CDF entries are filled in ascending result order, which keeps the cached
// cumulative values monotone non-decreasing.
type Cache struct {
	sync.Mutex
	pmf map[cacheKey]float64
	cdf map[cacheKey]float64

	hits   uint64
	misses uint64
}

func NewCache() *Cache {
	return &Cache{
		pmf: make(map[cacheKey]float64),
		cdf: make(map[cacheKey]float64),
	}
}

// globalCache backs every calculator that is not handed its own cache.
var globalCache = NewCache()

// Global returns the process-wide shared cache.
func Global() *Cache {
	return globalCache
}

func (c *Cache) getPMF(key cacheKey) (float64, bool) {
	c.Lock()
	defer c.Unlock()
	v, ok := c.pmf[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *Cache) putPMF(key cacheKey, v float64) {
	c.Lock()
	defer c.Unlock()
	c.pmf[key] = v
}

func (c *Cache) getCDF(key cacheKey) (float64, bool) {
	c.Lock()
	defer c.Unlock()
	v, ok := c.cdf[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *Cache) putCDF(key cacheKey, v float64) {
	c.Lock()
	defer c.Unlock()
	c.cdf[key] = v
}

// Stats returns the cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.Lock()
	defer c.Unlock()
	return c.hits, c.misses
}

// Entries returns the total number of cached PMF and CDF values.
func (c *Cache) Entries() int {
	c.Lock()
	defer c.Unlock()
	return len(c.pmf) + len(c.cdf)
}
