package gesture

import (
	"sort"
	"time"

	"modestep/debug"
	"modestep/sched"
)

// Kind is the type of a gesture.
type Kind int

const (
	HoldStart Kind = iota
	Combo
	LongPress
	Press
	Release
)

func (k Kind) String() string {
	switch k {
	case HoldStart:
		return "hold-start"
	case Combo:
		return "combo"
	case LongPress:
		return "long-press"
	case Press:
		return "press"
	case Release:
		return "release"
	}
	return "unknown"
}

// Gesture is a semantic key event. Held lists the other keys down at the time.
type Gesture struct {
	Key  Key
	Kind Kind
	At   time.Time
	Held []Key
}

// Pressure is a continuous pressure reading, not gesture input. X and Y are
// the key's tilt toward right and up.
type Pressure struct {
	Key   Key
	Value int
	X, Y  int
}

type keyState struct {
	timer *sched.Timer
	long  bool
}

// Processor tracks per-key hold state. All methods run on the loop.
type Processor struct {
	sched sched.Scheduler
	delay time.Duration
	emit  func(Gesture)
	down  map[Key]*keyState
}

// NewProcessor creates a processor that sends gestures to emit.
func NewProcessor(s sched.Scheduler, longPress time.Duration, emit func(Gesture)) *Processor {
	return &Processor{
		sched: s,
		delay: longPress,
		emit:  emit,
		down:  make(map[Key]*keyState),
	}
}

// Down handles a key-down signal. A repeated down is ignored.
func (p *Processor) Down(k Key) {
	if _, held := p.down[k]; held {
		debug.Log("gesture", "%s: repeated down ignored", k)
		return
	}
	others := p.Held()
	st := &keyState{}
	p.down[k] = st

	p.send(k, HoldStart, others)
	if len(others) > 0 {
		p.send(k, Combo, others)
	}
	st.timer = p.sched.After(p.delay, func() {
		if p.down[k] != st {
			return
		}
		st.long = true
		p.send(k, LongPress, p.heldExcept(k))
	})
}

// Up handles a key-up signal. Stray ups are ignored.
func (p *Processor) Up(k Key) {
	st, held := p.down[k]
	if !held {
		return
	}
	st.timer.Stop()
	delete(p.down, k)

	others := p.Held()
	if !st.long {
		p.send(k, Press, others)
	}
	p.send(k, Release, others)
}

// IsHeld reports whether k is currently down.
func (p *Processor) IsHeld(k Key) bool {
	_, ok := p.down[k]
	return ok
}

// Held returns the keys currently down, sorted.
func (p *Processor) Held() []Key {
	keys := make([]Key, 0, len(p.down))
	for k := range p.down {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reset cancels every pending long-press and forgets held keys, without
// emitting anything. Used on disconnect.
func (p *Processor) Reset() {
	for k, st := range p.down {
		st.timer.Stop()
		delete(p.down, k)
	}
}

// SetLongPressDelay changes the threshold for subsequent presses.
func (p *Processor) SetLongPressDelay(d time.Duration) {
	p.delay = d
}

func (p *Processor) heldExcept(k Key) []Key {
	var keys []Key
	for _, h := range p.Held() {
		if h != k {
			keys = append(keys, h)
		}
	}
	return keys
}

func (p *Processor) send(k Key, kind Kind, held []Key) {
	if p.emit == nil {
		return
	}
	p.emit(Gesture{Key: k, Kind: kind, At: p.sched.Now(), Held: held})
}
