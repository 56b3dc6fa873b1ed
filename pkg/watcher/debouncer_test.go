package watcher

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var calls, absorbed atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(events int) {
		calls.Add(1)
		absorbed.Store(int32(events))
	})

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}
	if !d.Pending() {
		t.Error("Expected a pending reload")
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 reload, got %d", got)
	}
	if got := absorbed.Load(); got != 5 {
		t.Errorf("Expected the reload to absorb 5 events, got %d", got)
	}
	if d.Pending() {
		t.Error("Expected nothing pending after the reload ran")
	}
}

func TestDebouncer_CountResetsBetweenBursts(t *testing.T) {
	counts := make(chan int, 4)
	d := NewDebouncer(20*time.Millisecond, func(events int) { counts <- events })

	d.Trigger()
	d.Trigger()
	if got := <-counts; got != 2 {
		t.Errorf("Expected first burst of 2, got %d", got)
	}

	d.Trigger()
	if got := <-counts; got != 1 {
		t.Errorf("Expected second burst of 1, got %d", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func(int) { calls.Add(1) })

	d.Trigger()
	d.Cancel()

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("Expected cancelled reload not to run, got %d", got)
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if d := NewDebouncer(0, nil); d.Duration() != DefaultDebounceDuration {
		t.Errorf("Expected default duration, got %v", d.Duration())
	}
}
