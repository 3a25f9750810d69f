package presence

import (
	"context"
	"testing"
	"time"
)

func TestSweeper_DemotesIdleUserOnTick(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(50 * time.Millisecond)

	if err := tr.Connect(ctx, "alice", "c1"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	sw := NewSweeper(tr, 20*time.Millisecond)
	sw.Start(ctx)
	defer sw.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := mustStatus(t, tr, "alice"); !st.Online {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("idle user was never swept offline")
}

func TestSweeper_StopIsIdempotentBeforeStart(t *testing.T) {
	tr, _ := newTestTracker(time.Minute)
	sw := NewSweeper(tr, time.Minute)
	sw.Stop() // no Start yet; must not panic
}

func TestSweeper_StopTerminatesLoop(t *testing.T) {
	tr, _ := newTestTracker(time.Minute)
	sw := NewSweeper(tr, 5*time.Millisecond)
	sw.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sw.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
