package watch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_Basic(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Call()
	}

	time.Sleep(150 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}
}

func TestDebouncer_SpacedCalls(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(30*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 3; i++ {
		d.Call()
		time.Sleep(100 * time.Millisecond)
	}

	if callCount.Load() != 3 {
		t.Errorf("callCount = %d, want 3", callCount.Load())
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	d.Call()
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if callCount.Load() != 0 {
		t.Errorf("callCount = %d, want 0 (canceled)", callCount.Load())
	}
	if d.IsPending() {
		t.Error("should not be pending after Cancel")
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(100*time.Millisecond, func() {
		callCount.Add(1)
	})

	d.Flush()
	if callCount.Load() != 0 {
		t.Errorf("Flush with nothing pending ran callback")
	}

	d.Call()
	d.Flush()
	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}

	time.Sleep(150 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("callCount after wait = %d, want 1", callCount.Load())
	}
}

func TestDebouncer_NoOverlap(t *testing.T) {
	var running, overlaps atomic.Int32

	d := NewDebouncer(10*time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
	})

	d.Call()
	time.Sleep(20 * time.Millisecond)
	d.Call()
	d.Flush()
	time.Sleep(100 * time.Millisecond)

	if overlaps.Load() != 0 {
		t.Errorf("callback ran concurrently with itself %d times", overlaps.Load())
	}
}
