package crawl

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many operations run at once. The Retrier owns one pool for
// sockets; the Reader owns a separate one for CPU-bound text work.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// DefaultNetworkPoolSize returns twice the available parallelism.
func DefaultNetworkPoolSize() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// NewPool creates a pool with size slots. A non-positive size uses
// DefaultNetworkPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultNetworkPoolSize()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// NewCPUPool creates a pool sized to GOMAXPROCS.
func NewCPUPool() *Pool {
	return NewPool(runtime.GOMAXPROCS(0))
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release frees a slot.
func (p *Pool) Release() {
	p.sem.Release(1)
}

// Do runs fn while holding a slot.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	return fn()
}
