package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterFires(t *testing.T) {
	r := NewRegistry()
	var fired atomic.Int32
	done := make(chan struct{})
	r.Register("elim-0", 10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if fired.Load() != 1 {
		t.Fatalf("expected 1 fire, got %d", fired.Load())
	}
	if r.Len() != 0 {
		t.Fatalf("fired timer should be removed, len=%d", r.Len())
	}
}

func TestCancelPreventsFire(t *testing.T) {
	r := NewRegistry()
	var fired atomic.Int32
	r.Register("elim-0", 20*time.Millisecond, func() { fired.Add(1) })
	if !r.Cancel("elim-0") {
		t.Fatal("expected Cancel to find the timer")
	}
	if r.Cancel("elim-0") {
		t.Fatal("second Cancel should report false")
	}
	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("cancelled timer fired %d times", fired.Load())
	}
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	var first, second atomic.Int32
	r.Register("slot", time.Hour, func() { first.Add(1) })
	r.Register("slot", 10*time.Millisecond, func() { second.Add(1) })
	time.Sleep(50 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatal("replaced timer must not fire")
	}
	if second.Load() != 1 {
		t.Fatalf("replacement fired %d times, want 1", second.Load())
	}
}

func TestCancelByPrefix(t *testing.T) {
	r := NewRegistry()
	noop := func() {}
	r.Register("turn-0", time.Hour, noop)
	r.Register("turn-1", time.Hour, noop)
	r.Register("elim-0", time.Hour, noop)
	if n := r.CancelByPrefix("turn-"); n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", r.Len())
	}
	r.CancelAll()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}
