package conversation

import (
	"sync"
	"time"
)

// Coalescer debounces directives per viewer. The first directive for a viewer
// opens a window; everything submitted inside the window is merged and handed
// to flush once when it closes.
type Coalescer struct {
	window time.Duration
	flush  func(Directive)

	mu      sync.Mutex
	pending map[string]*pendingDirective
	closed  bool
}

type pendingDirective struct {
	d     Directive
	timer *time.Timer
}

func NewCoalescer(window time.Duration, flush func(Directive)) *Coalescer {
	return &Coalescer{window: window, flush: flush, pending: make(map[string]*pendingDirective)}
}

// Submit queues d for its viewer. A zero window flushes synchronously.
func (c *Coalescer) Submit(d Directive) {
	if c.window <= 0 {
		c.flush(d)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if p, ok := c.pending[d.ViewerID]; ok {
		p.d = p.d.Merge(d)
		return
	}
	viewerID := d.ViewerID
	c.pending[viewerID] = &pendingDirective{
		d:     d,
		timer: time.AfterFunc(c.window, func() { c.fire(viewerID) }),
	}
}

func (c *Coalescer) fire(viewerID string) {
	c.mu.Lock()
	p, ok := c.pending[viewerID]
	if ok {
		delete(c.pending, viewerID)
	}
	closed := c.closed
	c.mu.Unlock()
	if ok && !closed {
		c.flush(p.d)
	}
}

// Pending reports how many viewers have an open window.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close drops pending directives without flushing them.
func (c *Coalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}
