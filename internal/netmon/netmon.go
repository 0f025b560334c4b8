package netmon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/fsnotify/fsnotify"
)

var ErrNoProbeAddr = errors.New("no probe address configured")

const (
	defaultProbeTimeout = 3 * time.Second
)

// DialFunc matches [net.Dialer.DialContext].
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ProbeOpts configures [NewProbeMonitor].
type ProbeOpts struct {
	Addr       string        // host:port dialed to decide connectivity
	Timeout    time.Duration // per-probe dial timeout
	Interval   time.Duration // background re-probe period; 0 disables polling
	WatchPaths []string      // files whose changes trigger a re-probe
	Dial       DialFunc
	Logger     *log.Logger
}

// ProbeOptsFromConfig converts the [shared.NetworkConfig] section.
func ProbeOptsFromConfig(c shared.NetworkConfig, logger *log.Logger) ProbeOpts {
	return ProbeOpts{
		Addr:       c.ProbeAddr,
		Timeout:    c.ProbeTimeout.Duration,
		Interval:   c.ProbeInterval.Duration,
		WatchPaths: c.WatchPaths,
		Logger:     logger,
	}
}

// ProbeMonitor decides connectivity with a TCP dial.
type ProbeMonitor struct {
	opts ProbeOpts

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	watcher *fsnotify.Watcher
	subs    map[int]chan bool
	nextSub int
	last    *bool
}

// NewProbeMonitor creates an unregistered monitor.
func NewProbeMonitor(opts ProbeOpts) *ProbeMonitor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	if opts.Dial == nil {
		d := &net.Dialer{}
		opts.Dial = d.DialContext
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &ProbeMonitor{opts: opts}
}

// Probe dials the configured address once. An unreachable address is reported as (false, nil); errors are reserved
// for misconfiguration and cancellation of ctx.
func (m *ProbeMonitor) Probe(ctx context.Context) (bool, error) {
	if m.opts.Addr == "" {
		return false, ErrNoProbeAddr
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	conn, err := m.opts.Dial(dialCtx, "tcp", m.opts.Addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		m.opts.Logger.Debug("probe failed", "addr", m.opts.Addr, "err", err)
		return false, nil
	}
	conn.Close()
	return true, nil
}

// NetworkState returns a lazy sequence of connectivity states. Every iteration starts with a fresh probe. While the
// monitor is registered the sequence continues with each later change until ctx ends or the consumer stops; an
// unregistered monitor yields only the probe result.
func (m *ProbeMonitor) NetworkState(ctx context.Context) iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		online, err := m.Probe(ctx)
		if !yield(online, err) || err != nil {
			return
		}

		ch, unsubscribe := m.subscribe()
		if ch == nil {
			return
		}
		defer unsubscribe()

		// A change may have landed between the first probe and subscribing.
		if state, err := m.Probe(ctx); err != nil {
			return
		} else if state != online {
			online = state
			if !yield(state, nil) {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-ch:
				if !ok {
					return
				}
				if state == online {
					continue
				}
				online = state
				if !yield(state, nil) {
					return
				}
			}
		}
	}
}

// RegisterNetworkMonitor starts the background probe loop. Calling it while registered does nothing.
func (m *ProbeMonitor) RegisterNetworkMonitor() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return nil
	}

	var watcher *fsnotify.Watcher
	if len(m.opts.WatchPaths) > 0 {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		for _, p := range m.opts.WatchPaths {
			if err := w.Add(p); err != nil {
				m.opts.Logger.Warn("skipping watch path", "path", p, "err", err)
			}
		}
		watcher = w
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.watcher = watcher
	m.subs = make(map[int]chan bool)
	m.last = nil

	go m.loop(ctx, watcher, m.done)
	m.opts.Logger.Debug("network monitor registered", "addr", m.opts.Addr)
	return nil
}

// UnregisterNetworkMonitor stops the background loop and ends every open sequence. Calling it while unregistered
// does nothing.
func (m *ProbeMonitor) UnregisterNetworkMonitor() {
	m.mu.Lock()
	cancel, done, watcher := m.cancel, m.done, m.watcher
	m.cancel, m.done, m.watcher = nil, nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	if watcher != nil {
		watcher.Close()
	}
	<-done

	m.mu.Lock()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
	m.mu.Unlock()
	m.opts.Logger.Debug("network monitor unregistered")
}

// subscribers returns the number of open sequences following changes.
func (m *ProbeMonitor) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Registered reports whether the background loop is running.
func (m *ProbeMonitor) Registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *ProbeMonitor) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if m.opts.Interval > 0 {
		ticker := time.NewTicker(m.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events, errs = watcher.Events, watcher.Errors
	}

	m.reprobe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			m.reprobe(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// Files like resolv.conf are usually replaced rather than written in place.
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				_ = watcher.Add(ev.Name)
			}
			m.opts.Logger.Debug("watched path changed", "path", ev.Name, "op", ev.Op.String())
			m.reprobe(ctx)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.opts.Logger.Warn("watcher error", "err", err)
		}
	}
}

func (m *ProbeMonitor) reprobe(ctx context.Context) {
	online, err := m.Probe(ctx)
	if err != nil {
		return
	}
	m.publish(online)
}

// publish fans a changed state out to subscribers. Each subscriber holds at most the latest unread state.
func (m *ProbeMonitor) publish(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.last != nil && *m.last == online {
		return
	}
	m.last = &online
	m.opts.Logger.Info("connectivity changed", "online", online)

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
}

func (m *ProbeMonitor) subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return nil, func() {}
	}

	id := m.nextSub
	m.nextSub++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// StaticMonitor always reports the same state.
type StaticMonitor struct {
	Online bool
	Err    error
}

func (s StaticMonitor) NetworkState(ctx context.Context) iter.Seq2[bool, error] {
	return func(yield func(bool, error) bool) {
		yield(s.Online, s.Err)
	}
}

func (StaticMonitor) RegisterNetworkMonitor() error { return nil }

func (StaticMonitor) UnregisterNetworkMonitor() {}
