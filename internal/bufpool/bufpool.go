// Package bufpool provides a sync.Pool-backed byte-buffer pool, so the
// per-connection read path reuses buffers instead of allocating a fresh
// one on every readable event.
package bufpool

import "sync"

const maxPooled = 64 * 1024

// Pool hands out byte slices of a requested size, reusing pooled
// capacity where it fits.
type Pool struct {
	pool sync.Pool
}

// New constructs a Pool whose buffers start at 1KiB before growing to
// whatever size callers request.
func New() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, 1024)
			},
		},
	}
}

// Get returns a buffer of exactly size bytes, drawing from the pool when
// the pooled capacity is big enough and allocating fresh otherwise.
func (p *Pool) Get(size int) []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

// Put returns buf to the pool for reuse, unless it's grown too large to
// be worth pooling.
func (p *Pool) Put(buf []byte) {
	if cap(buf) <= maxPooled {
		p.pool.Put(buf[:0])
	}
}
