// Package debounce coalesces bursts of events.
//
// Debouncer runs a callback on its own goroutine once a burst has been quiet
// for the configured duration; the file watcher uses it. Timers does not run
// anything: it hands out tokens per named key so a single-threaded event loop
// can tell the latest request from stale ones when the delayed message comes
// back.
package debounce

import (
	"sync"
	"time"
)

// DefaultDuration is used when a Debouncer is created with a non-positive
// duration.
const DefaultDuration = 200 * time.Millisecond

// Debouncer delays a callback until Trigger has not been called for the
// configured duration. It is safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	seq      uint64
}

// New returns a Debouncer that waits d after the last Trigger.
func New(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Debouncer{duration: d}
}

// Trigger schedules fn, replacing any callback still pending.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := seq == d.seq
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Token identifies one arming of a named timer.
type Token struct {
	Generation uint64
	Seq        uint64
}

// Timers tracks independent named timers. Arming a key invalidates the
// previous token for that key only; Bump invalidates every outstanding token.
// It is not safe for concurrent use.
type Timers struct {
	delays     map[string]time.Duration
	seq        map[string]uint64
	generation uint64
}

// NewTimers returns Timers with the given per-key delays.
func NewTimers(delays map[string]time.Duration) *Timers {
	t := &Timers{
		delays: make(map[string]time.Duration, len(delays)),
		seq:    make(map[string]uint64, len(delays)),
	}
	for k, d := range delays {
		t.delays[k] = d
	}
	return t
}

// Delay returns the delay configured for key, or DefaultDuration.
func (t *Timers) Delay(key string) time.Duration {
	if d, ok := t.delays[key]; ok && d > 0 {
		return d
	}
	return DefaultDuration
}

// SetDelay changes the delay for key.
func (t *Timers) SetDelay(key string, d time.Duration) {
	t.delays[key] = d
}

// Arm re-arms key and returns the token the delayed message must carry.
func (t *Timers) Arm(key string) Token {
	t.seq[key]++
	return Token{Generation: t.generation, Seq: t.seq[key]}
}

// Fire reports whether tok is the latest token for key. A current token is
// consumed, so a duplicate delivery reports false.
func (t *Timers) Fire(key string, tok Token) bool {
	if tok.Generation != t.generation || tok.Seq != t.seq[key] || tok.Seq == 0 {
		return false
	}
	t.seq[key]++
	return true
}

// Cancel invalidates the outstanding token for key.
func (t *Timers) Cancel(key string) {
	t.seq[key]++
}

// Pending reports whether key has an outstanding token.
func (t *Timers) Pending(key string, tok Token) bool {
	return tok.Generation == t.generation && tok.Seq == t.seq[key]
}

// Bump starts a new generation; every outstanding token becomes stale.
func (t *Timers) Bump() uint64 {
	t.generation++
	return t.generation
}

// Generation returns the current generation.
func (t *Timers) Generation() uint64 {
	return t.generation
}
