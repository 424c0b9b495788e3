package sched

import (
	"sort"
	"time"
)

// Fake is a manually advanced Scheduler for tests.
type Fake struct {
	now     time.Time
	seq     int
	pending []*fakeEntry
}

type fakeEntry struct {
	due   time.Time
	seq   int
	timer *Timer
	fn    func()
}

// NewFake returns a fake clock starting at an arbitrary fixed instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	return f.now
}

func (f *Fake) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	t := &Timer{}
	f.seq++
	f.pending = append(f.pending, &fakeEntry{due: f.now.Add(d), seq: f.seq, timer: t, fn: fn})
	return t
}

// Advance moves the clock forward by d, firing due timers in order. Timers
// scheduled by callbacks also fire if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		e := f.next(target)
		if e == nil {
			break
		}
		if e.due.After(f.now) {
			f.now = e.due
		}
		e.timer.fire(e.fn)
	}
	f.now = target
}

// Flush runs everything due right now, including zero-delay follow-ups.
func (f *Fake) Flush() {
	f.Advance(0)
}

// Pending counts timers that have neither fired nor been stopped.
func (f *Fake) Pending() int {
	n := 0
	for _, e := range f.pending {
		if e.timer.Active() {
			n++
		}
	}
	return n
}

func (f *Fake) next(target time.Time) *fakeEntry {
	live := f.pending[:0]
	for _, e := range f.pending {
		if e.timer.Active() {
			live = append(live, e)
		}
	}
	f.pending = live
	if len(f.pending) == 0 {
		return nil
	}
	sort.SliceStable(f.pending, func(i, j int) bool {
		if f.pending[i].due.Equal(f.pending[j].due) {
			return f.pending[i].seq < f.pending[j].seq
		}
		return f.pending[i].due.Before(f.pending[j].due)
	})
	e := f.pending[0]
	if e.due.After(target) {
		return nil
	}
	f.pending = f.pending[1:]
	return e
}
