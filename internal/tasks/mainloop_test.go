package tasks

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestMainLoop(t *testing.T) {
	t.Run("runs in posting order", func(t *testing.T) {
		loop := NewMainLoop()
		defer loop.Close()

		var got []int
		for i := range 100 {
			loop.Post(func() { got = append(got, i) })
		}
		loop.Flush()

		for i, v := range got {
			if v != i {
				t.Fatalf("expected %d at position %d, got %d", i, i, v)
			}
		}
		if len(got) != 100 {
			t.Errorf("expected 100 runs, got %d", len(got))
		}
	})

	t.Run("concurrent posters never overlap", func(t *testing.T) {
		loop := NewMainLoop()
		defer loop.Close()

		var active, overlaps, runs int
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 25 {
					loop.Post(func() {
						active++
						if active > 1 {
							overlaps++
						}
						runs++
						active--
					})
				}
			}()
		}
		wg.Wait()
		loop.Flush()

		if overlaps != 0 {
			t.Errorf("expected no overlaps, got %d", overlaps)
		}
		if runs != 200 {
			t.Errorf("expected 200 runs, got %d", runs)
		}
	})

	t.Run("close drains queue and refuses posts", func(t *testing.T) {
		loop := NewMainLoop()
		var got []string
		block := make(chan struct{})
		loop.Post(func() { <-block })
		loop.Post(func() { got = append(got, "queued") })

		closed := make(chan struct{})
		go func() {
			loop.Close()
			close(closed)
		}()
		time.Sleep(10 * time.Millisecond)
		close(block)
		<-closed

		if !slices.Equal(got, []string{"queued"}) {
			t.Errorf("expected queued work to run before close, got %v", got)
		}
		if loop.Post(func() {}) {
			t.Error("expected Post to fail after Close")
		}
		loop.Flush()
		loop.Close()
	})
}

func TestDisposables(t *testing.T) {
	t.Run("dispose cancels running operations", func(t *testing.T) {
		d := NewDisposables(context.Background())
		started := make(chan struct{})
		if !d.Go(func(ctx context.Context) {
			close(started)
			<-ctx.Done()
		}) {
			t.Fatal("expected Go to start")
		}
		<-started

		if d.Size() != 1 {
			t.Errorf("expected 1 active operation, got %d", d.Size())
		}

		d.Dispose()
		d.Wait()

		if d.Size() != 0 {
			t.Errorf("expected no active operations, got %d", d.Size())
		}
		if !d.Disposed() {
			t.Error("expected disposed group")
		}
		if d.Context().Err() == nil {
			t.Error("expected cancelled context")
		}
	})

	t.Run("disposed group refuses work", func(t *testing.T) {
		d := NewDisposables(nil)
		d.Dispose()
		d.Dispose()

		ran := false
		if d.Go(func(context.Context) { ran = true }) {
			t.Error("expected Go to refuse after Dispose")
		}
		d.Wait()
		if ran {
			t.Error("expected function not to run")
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		d := NewDisposables(parent)
		cancel()

		select {
		case <-d.Context().Done():
		case <-time.After(time.Second):
			t.Fatal("expected parent cancellation to reach the group")
		}
		if d.Disposed() {
			t.Error("parent cancellation should not mark the group disposed")
		}
	})
}
