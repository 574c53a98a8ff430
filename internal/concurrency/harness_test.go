package concurrency

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestHarnessCallsEveryIndexExactlyOnce(t *testing.T) {
	const n = 200
	var seen [n]int32
	h := NewHarness(n)
	if err := h.Run(8, func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d called %d times, want 1", i, c)
		}
	}
}

func TestHarnessStopsOnFirstError(t *testing.T) {
	h := NewHarness(100)
	wantErr := errors.New("boom")
	var calls int32
	err := h.Run(4, func(i int) error {
		atomic.AddInt32(&calls, 1)
		if i == 5 {
			return wantErr
		}
		return nil
	})
	if err != wantErr {
		t.Fatalf("expected wantErr, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n >= 100 {
		t.Errorf("expected cancellation to cut work short, all %d items ran", n)
	}
}

func TestHarnessZeroWorkersDefaultsToNumCPU(t *testing.T) {
	h := NewHarness(4)
	var calls int32
	if err := h.Run(0, func(i int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}
