package tasks

import (
	"context"
	"sync"
)

// Disposables is a scoped group of background operations sharing one cancellation.
//
// Dispose cancels every operation started with Go and refuses new ones. It does not wait; use Wait for that.
type Disposables struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	active   int
	disposed bool
}

// NewDisposables creates a group whose operations are cancelled when parent is done or on Dispose.
func NewDisposables(parent context.Context) *Disposables {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Disposables{ctx: ctx, cancel: cancel}
}

// Go runs fn in a new goroutine tracked by the group. It reports false, without running fn, after Dispose.
func (d *Disposables) Go(fn func(ctx context.Context)) bool {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return false
	}
	d.active++
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			d.active--
			d.mu.Unlock()
			d.wg.Done()
		}()
		fn(d.ctx)
	}()
	return true
}

// Context returns the group's context. It is cancelled by Dispose.
func (d *Disposables) Context() context.Context {
	return d.ctx
}

// Dispose cancels every tracked operation. Calling it again does nothing.
func (d *Disposables) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	d.mu.Unlock()

	d.cancel()
}

// Disposed reports whether Dispose has been called.
func (d *Disposables) Disposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

// Size returns the number of operations still running.
func (d *Disposables) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Wait blocks until every tracked operation has returned.
func (d *Disposables) Wait() {
	d.wg.Wait()
}
