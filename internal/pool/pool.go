// Package pool provides the bounded worker pool handed to codec back-ends.
package pool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs indexed tasks with at most Threads goroutines. A nil *Pool runs
// everything inline on the calling goroutine.
type Pool struct {
	threads int
}

// New creates a pool. threads <= 0 means runtime.NumCPU().
func New(threads int) *Pool {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Pool{threads: threads}
}

// Threads returns the concurrency limit (1 for a nil pool).
func (p *Pool) Threads() int {
	if p == nil {
		return 1
	}
	return p.threads
}

// Run calls fn(i) for i in [0, n) and returns the first error.
// Remaining tasks still run to completion.
func (p *Pool) Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if p == nil || p.threads == 1 || n == 1 {
		var first error
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var g errgroup.Group
	g.SetLimit(p.threads)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
