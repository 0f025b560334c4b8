package netmon

import (
	"context"
	"errors"
	"iter"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// toggleDial returns a dialer whose reachability follows online.
func toggleDial(online *atomic.Bool) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !online.Load() {
			return nil, errors.New("connection refused")
		}
		client, server := net.Pipe()
		server.Close()
		return client, nil
	}
}

type pulled struct {
	online bool
	err    error
}

// pullAsync pulls one value from a pull iterator in the background.
func pullAsync(pull func() (bool, error, bool)) <-chan pulled {
	ch := make(chan pulled, 1)
	go func() {
		online, err, ok := pull()
		if ok {
			ch <- pulled{online, err}
		}
		close(ch)
	}()
	return ch
}

// await waits for a pulled value with a deadline.
func await(t *testing.T, ch <-chan pulled) bool {
	t.Helper()

	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatal("sequence ended early")
		}
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		return r.online
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for network state")
	}
	return false
}

// waitForSubscriber blocks until a sequence is following changes on m.
func waitForSubscriber(t *testing.T, m *ProbeMonitor) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for m.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for subscriber")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestProbe(t *testing.T) {
	var online atomic.Bool
	m := NewProbeMonitor(ProbeOpts{Addr: "example.com:443", Dial: toggleDial(&online)})

	t.Run("offline", func(t *testing.T) {
		got, err := m.Probe(context.Background())
		if err != nil || got {
			t.Errorf("expected (false, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("online", func(t *testing.T) {
		online.Store(true)
		got, err := m.Probe(context.Background())
		if err != nil || !got {
			t.Errorf("expected (true, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("missing address", func(t *testing.T) {
		_, err := NewProbeMonitor(ProbeOpts{}).Probe(context.Background())
		if !errors.Is(err, ErrNoProbeAddr) {
			t.Errorf("expected ErrNoProbeAddr, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := m.Probe(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNetworkState(t *testing.T) {
	t.Run("unregistered yields one fresh probe per iteration", func(t *testing.T) {
		var online atomic.Bool
		var dials atomic.Int32
		dial := toggleDial(&online)
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", Dial: func(ctx context.Context, n, a string) (net.Conn, error) {
			dials.Add(1)
			return dial(ctx, n, a)
		}})

		seq := m.NetworkState(context.Background())
		if dials.Load() != 0 {
			t.Fatal("sequence should not probe before iteration")
		}

		var states []bool
		for s, err := range seq {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			states = append(states, s)
		}
		online.Store(true)
		for s := range seq {
			states = append(states, s)
		}

		if len(states) != 2 || states[0] || !states[1] {
			t.Errorf("expected [false true], got %v", states)
		}
		if dials.Load() != 2 {
			t.Errorf("expected 2 probes, got %d", dials.Load())
		}
	})

	t.Run("registered streams changes from polling", func(t *testing.T) {
		var online atomic.Bool
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", Interval: 10 * time.Millisecond, Dial: toggleDial(&online)})
		if err := m.RegisterNetworkMonitor(); err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		defer m.UnregisterNetworkMonitor()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pull, stop := iter.Pull2(m.NetworkState(ctx))
		defer stop()

		if await(t, pullAsync(pull)) {
			t.Fatal("expected initial offline state")
		}

		changed := pullAsync(pull)
		waitForSubscriber(t, m)
		online.Store(true)
		if !await(t, changed) {
			t.Error("expected online after change")
		}
	})

	t.Run("registered re-probes on watched file change", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "resolv.conf")
		if err := os.WriteFile(path, []byte("nameserver 127.0.0.1\n"), 0644); err != nil {
			t.Fatalf("failed to write watch file: %v", err)
		}

		var online atomic.Bool
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", WatchPaths: []string{path}, Dial: toggleDial(&online)})
		if err := m.RegisterNetworkMonitor(); err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		defer m.UnregisterNetworkMonitor()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pull, stop := iter.Pull2(m.NetworkState(ctx))
		defer stop()

		if await(t, pullAsync(pull)) {
			t.Fatal("expected initial offline state")
		}

		changed := pullAsync(pull)
		waitForSubscriber(t, m)
		online.Store(true)
		if err := os.WriteFile(path, []byte("nameserver 1.1.1.1\n"), 0644); err != nil {
			t.Fatalf("failed to update watch file: %v", err)
		}
		if !await(t, changed) {
			t.Error("expected online after watched file changed")
		}
	})

	t.Run("unregister ends open sequences", func(t *testing.T) {
		var online atomic.Bool
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", Dial: toggleDial(&online)})
		if err := m.RegisterNetworkMonitor(); err != nil {
			t.Fatalf("failed to register: %v", err)
		}

		done := make(chan int)
		go func() {
			n := 0
			for range m.NetworkState(context.Background()) {
				n++
			}
			done <- n
		}()

		time.Sleep(20 * time.Millisecond)
		m.UnregisterNetworkMonitor()

		select {
		case n := <-done:
			if n != 1 {
				t.Errorf("expected only the initial state, got %d", n)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("sequence did not end after unregister")
		}
	})

	t.Run("register is idempotent", func(t *testing.T) {
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", Dial: toggleDial(new(atomic.Bool))})
		for range 3 {
			if err := m.RegisterNetworkMonitor(); err != nil {
				t.Fatalf("failed to register: %v", err)
			}
		}
		if !m.Registered() {
			t.Error("expected registered monitor")
		}

		m.UnregisterNetworkMonitor()
		m.UnregisterNetworkMonitor()
		if m.Registered() {
			t.Error("expected unregistered monitor")
		}
	})

	t.Run("missing watch path is skipped", func(t *testing.T) {
		m := NewProbeMonitor(ProbeOpts{Addr: "x:1", WatchPaths: []string{filepath.Join(t.TempDir(), "missing")}, Dial: toggleDial(new(atomic.Bool))})
		if err := m.RegisterNetworkMonitor(); err != nil {
			t.Fatalf("expected missing path to be skipped, got %v", err)
		}
		m.UnregisterNetworkMonitor()
	})
}

func TestStaticMonitor(t *testing.T) {
	boom := errors.New("boom")
	var got []error
	for _, err := range (StaticMonitor{Err: boom}).NetworkState(context.Background()) {
		got = append(got, err)
	}
	if len(got) != 1 || !errors.Is(got[0], boom) {
		t.Errorf("expected a single boom, got %v", got)
	}
}
