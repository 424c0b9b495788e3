// Package sched provides the single-threaded event loop everything in a
// session runs on, plus cancellable timers that fire on that same loop.
package sched

import (
	"context"
	"time"
)

// Scheduler runs callbacks after a delay on the owning loop.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) *Timer
}

// Timer is a cancel handle for a scheduled callback. Stop must be called from
// the loop; once it returns true the callback is guaranteed not to run.
type Timer struct {
	stopped bool
	fired   bool
	cancel  func()
}

// Stop cancels the timer. Returns false if it already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
	return true
}

// Active reports whether the callback is still pending.
func (t *Timer) Active() bool {
	return t != nil && !t.stopped && !t.fired
}

// fire runs fn unless the timer was stopped first.
func (t *Timer) fire(fn func()) {
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	fn()
}

// Loop serializes work onto one goroutine. Post is safe from any goroutine;
// everything else is meant to be called from inside posted functions.
type Loop struct {
	queue chan func()
}

// NewLoop creates a loop with the given queue depth.
func NewLoop(depth int) *Loop {
	if depth <= 0 {
		depth = 64
	}
	return &Loop{queue: make(chan func(), depth)}
}

// Post enqueues fn. Blocks if the queue is full.
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// Now returns wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// After schedules fn on the loop after d.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	tt := time.AfterFunc(d, func() {
		l.Post(func() { t.fire(fn) })
	})
	t.cancel = func() { tt.Stop() }
	return t
}

// Run processes posted work until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}
