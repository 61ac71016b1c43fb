package metrics

import (
	"sync/atomic"
)

// CacheMetric counts hits and misses for a memoizing cache.
type CacheMetric struct {
	name   string
	hits   int64
	misses int64
	size   int64
}

var caches []*CacheMetric

func newCacheMetric(name string) *CacheMetric {
	c := &CacheMetric{name: name}
	caches = append(caches, c)
	return c
}

// Hit records a cache hit.
func (c *CacheMetric) Hit() {
	if !enabled {
		return
	}
	atomic.AddInt64(&c.hits, 1)
}

// Miss records a cache miss.
func (c *CacheMetric) Miss() {
	if !enabled {
		return
	}
	atomic.AddInt64(&c.misses, 1)
}

// SetSize records the current number of cached entries.
func (c *CacheMetric) SetSize(n int) {
	atomic.StoreInt64(&c.size, int64(n))
}

// Hits returns the number of recorded hits.
func (c *CacheMetric) Hits() int64 { return atomic.LoadInt64(&c.hits) }

// Misses returns the number of recorded misses.
func (c *CacheMetric) Misses() int64 { return atomic.LoadInt64(&c.misses) }

// Reset clears all counters.
func (c *CacheMetric) Reset() {
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.size, 0)
}

// CacheStats holds a snapshot of cache statistics.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int64   `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns all counters at once.
func (c *CacheMetric) Stats() CacheStats {
	hits := c.Hits()
	misses := c.Misses()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{
		Name:    c.name,
		Hits:    hits,
		Misses:  misses,
		Size:    atomic.LoadInt64(&c.size),
		HitRate: rate,
	}
}

// StyleCache tracks the marker style cache.
var StyleCache = newCacheMetric("style_cache")

// Report is the JSON document printed by --metrics.
type Report struct {
	Timings []TimingStats `json:"timings"`
	Caches  []CacheStats  `json:"caches"`
}

// Snapshot collects every metric with data into a Report.
func Snapshot() Report {
	var r Report
	for _, m := range timings {
		if m.Count() > 0 {
			r.Timings = append(r.Timings, m.Stats())
		}
	}
	for _, c := range caches {
		if c.Hits()+c.Misses() > 0 {
			r.Caches = append(r.Caches, c.Stats())
		}
	}
	return r
}
