package concurrency

import (
	"sync"
	"testing"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		if !ok || got.(int) != want {
			t.Fatalf("Pop: got %v,%v want %d,true", got, ok, want)
		}
	}
}

func TestQueueCloseDrainsThenSentinels(t *testing.T) {
	q := NewQueue(4)
	q.Push("a")
	q.Push("b")
	q.Close()

	got, ok := q.Pop()
	if !ok || got != "a" {
		t.Fatalf("expected drained item a, got %v,%v", got, ok)
	}
	got, ok = q.Pop()
	if !ok || got != "b" {
		t.Fatalf("expected drained item b, got %v,%v", got, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected sentinel shutdown after drain")
	}
}

func TestQueueBlockingPopUnblocksOnPush(t *testing.T) {
	q := NewQueue(1)
	var wg sync.WaitGroup
	wg.Add(1)
	result := make(chan interface{}, 1)
	go func() {
		defer wg.Done()
		item, ok := q.Pop()
		if ok {
			result <- item
		}
	}()
	q.Push(42)
	wg.Wait()
	if got := <-result; got.(int) != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestQueueBlockingPushUnblocksOnPop(t *testing.T) {
	q := NewQueue(1)
	q.Push(1) // fills capacity

	var wg sync.WaitGroup
	wg.Add(1)
	pushed := make(chan struct{})
	go func() {
		defer wg.Done()
		q.Push(2)
		close(pushed)
	}()

	if _, ok := q.Pop(); !ok {
		t.Fatalf("expected first item")
	}
	<-pushed
	if _, ok := q.Pop(); !ok {
		t.Fatalf("expected second item after unblocking push")
	}
	wg.Wait()
}
