package memory

import "sync/atomic"

// writeCounter lets tests assert that a pass performed no writes.
type writeCounter struct {
	n atomic.Int64
}

func (c *writeCounter) inc() {
	c.n.Add(1)
}

func (c *writeCounter) load() int64 {
	return c.n.Load()
}
