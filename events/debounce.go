package events

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a metadata change is handled
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces bursts of calls per key into one call made after the
// key has been quiet for the wait. The last function passed wins.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	pending map[string]*pending
	stopped bool
}

type pending struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &Debouncer{wait: wait, pending: map[string]*pending{}}
}

// Trigger schedules fn for key, restarting the key's quiet period
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if p, ok := d.pending[key]; ok && p.timer.Stop() {
		p.fn = fn
		p.timer.Reset(d.wait)
		return
	}
	// Either new, or the old timer already fired and fire() will see it
	// was replaced
	p := &pending{fn: fn}
	p.timer = time.AfterFunc(d.wait, func() { d.fire(key, p) })
	d.pending[key] = p
}

func (d *Debouncer) fire(key string, p *pending) {
	d.mu.Lock()
	if d.pending[key] != p {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	fn := p.fn
	d.mu.Unlock()
	fn()
}

// Pending returns the number of keys waiting to fire
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending call; later triggers are ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
