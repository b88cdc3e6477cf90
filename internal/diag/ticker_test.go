// File: internal/diag/ticker_test.go
// Author: momentics <momentics@gmail.com>

package diag

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerDrainsSubmittedTasks(t *testing.T) {
	tk := NewTicker()
	defer tk.Close()

	var n int32
	for i := 0; i < 5; i++ {
		tk.Submit(func() { atomic.AddInt32(&n, 1) })
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&n) != 5 {
		select {
		case <-deadline:
			t.Fatalf("timed out, got %d/5 tasks run", atomic.LoadInt32(&n))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTickerCloseIsLive(t *testing.T) {
	tk := NewTicker()
	done := make(chan struct{})
	go func() {
		tk.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return: possible deadlock")
	}
}
