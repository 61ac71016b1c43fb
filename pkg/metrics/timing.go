// Package metrics times the filter/search/render loop and data loading, and
// counts marker style cache hits. Everything is in-process and printed by
// --metrics; SCHOOLMAP_METRICS=0 turns collection off.
//
//	defer metrics.Timer(metrics.Recompute)()
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled = os.Getenv("SCHOOLMAP_METRICS") != "0"

// SetEnabled switches collection on or off.
func SetEnabled(e bool) {
	enabled = e
}

// TimingMetric aggregates durations of one operation. Safe for concurrent
// use; the data source fetch records from errgroup workers.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	min   atomic.Int64 // 0 until the first sample
	max   atomic.Int64
}

var timings []*TimingMetric

func newTimingMetric(name string) *TimingMetric {
	m := &TimingMetric{name: name}
	timings = append(timings, m)
	return m
}

var (
	DataFetch   = newTimingMetric("data_fetch")
	DataDecode  = newTimingMetric("data_decode")
	Enrichment  = newTimingMetric("enrichment")
	IndexBuild  = newTimingMetric("index_build")
	SearchQuery = newTimingMetric("search_query")
	Recompute   = newTimingMetric("recompute")
	SinkApply   = newTimingMetric("sink_apply")
	UIRender    = newTimingMetric("ui_render")
)

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

func (m *TimingMetric) reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.min.Store(0)
	m.max.Store(0)
}

// TimingStats is one row of the --metrics report.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// Stats summarizes the samples so far.
func (m *TimingMetric) Stats() TimingStats {
	s := TimingStats{
		Name:    m.name,
		Count:   m.count.Load(),
		TotalMs: ms(m.total.Load()),
		MinMs:   ms(m.min.Load()),
		MaxMs:   ms(m.max.Load()),
	}
	if s.Count > 0 {
		s.AvgMs = s.TotalMs / float64(s.Count)
	}
	return s
}

func ms(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}

// Timer starts timing m; call the result to record.
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// ResetAll clears every timing and cache metric.
func ResetAll() {
	for _, m := range timings {
		m.reset()
	}
	for _, c := range caches {
		c.Reset()
	}
}
