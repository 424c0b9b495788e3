package sched

import (
	"context"
	"testing"
	"time"
)

func TestFakeFiresInOrder(t *testing.T) {
	f := NewFake()
	var got []int
	f.After(200*time.Millisecond, func() { got = append(got, 2) })
	f.After(100*time.Millisecond, func() { got = append(got, 1) })
	f.After(300*time.Millisecond, func() { got = append(got, 3) })

	f.Advance(250 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
	f.Advance(time.Second)
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 entries", got)
	}
}

func TestFakeStopPreventsFire(t *testing.T) {
	f := NewFake()
	fired := false
	tm := f.After(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("expected Stop to report cancellation")
	}
	f.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if tm.Stop() {
		t.Error("second Stop should return false")
	}
}

func TestFakeNestedZeroDelay(t *testing.T) {
	f := NewFake()
	var got []string
	f.After(0, func() {
		got = append(got, "a")
		f.After(0, func() { got = append(got, "b") })
	})
	f.Flush()
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestFakeClockAdvancesToDue(t *testing.T) {
	f := NewFake()
	start := f.Now()
	var at time.Time
	f.After(150*time.Millisecond, func() { at = f.Now() })
	f.Advance(time.Second)
	if got := at.Sub(start); got != 150*time.Millisecond {
		t.Errorf("callback saw %v, want 150ms", got)
	}
	if got := f.Now().Sub(start); got != time.Second {
		t.Errorf("clock at %v, want 1s", got)
	}
}

func TestLoopRunsPostedAndTimers(t *testing.T) {
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan string, 2)
	l.Post(func() { done <- "posted" })
	l.Post(func() {
		l.After(10*time.Millisecond, func() { done <- "timer" })
	})

	for _, want := range []string{"posted", "timer"} {
		select {
		case got := <-done:
			if got != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestLoopStoppedTimerNeverRuns(t *testing.T) {
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{}, 1)
	stopped := make(chan bool, 1)
	l.Post(func() {
		tm := l.After(5*time.Millisecond, func() { fired <- struct{}{} })
		stopped <- tm.Stop()
	})
	if !<-stopped {
		t.Fatal("Stop returned false")
	}
	select {
	case <-fired:
		t.Fatal("stopped timer ran")
	case <-time.After(50 * time.Millisecond):
	}
}
