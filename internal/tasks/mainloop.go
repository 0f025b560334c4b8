package tasks

import "sync"

// MainLoop is a [Scheduler] backed by a single goroutine. Posting never blocks: the queue is unbounded.
type MainLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewMainLoop starts the loop goroutine.
func NewMainLoop() *MainLoop {
	l := &MainLoop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post queues fn. It reports false after Close.
func (l *MainLoop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Flush blocks until every function posted before the call has run. It must not be called from the loop itself.
func (l *MainLoop) Flush() {
	done := make(chan struct{})
	if !l.Post(func() { close(done) }) {
		<-l.done
		return
	}
	<-done
}

// Close runs what is already queued and stops the loop. Calling it again does nothing.
func (l *MainLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()

	<-l.done
}

func (l *MainLoop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
