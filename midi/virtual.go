package midi

import (
	"sync"

	"modestep/gesture"
)

// Virtual is an in-process controller. It records output, answers identity
// queries, and lets callers inject key presses. Used by the monitor when no
// hardware is attached.
type Virtual struct {
	*Recorder

	id     string
	mu     sync.Mutex
	events chan Event
	closed bool
	// Mute stops identity replies, to simulate a device that never answers.
	Mute bool
}

func NewVirtual(id string) *Virtual {
	return &Virtual{
		Recorder: NewRecorder(),
		id:       id,
		events:   make(chan Event, 64),
	}
}

func (v *Virtual) ID() string { return v.id }

func (v *Virtual) Events() <-chan Event { return v.events }

func (v *Virtual) IdentityQuery() error {
	v.Recorder.IdentityQuery()
	if !v.Mute {
		v.push(Event{Kind: IdentityReply, Data: []byte{0x7E, 0x00, 0x06, 0x02, 0x00, 0x01, 0x5F}})
	}
	return nil
}

// Down and Up inject key signals.
func (v *Virtual) Down(k gesture.Key) { v.push(Event{Kind: KeyDown, Key: k}) }
func (v *Virtual) Up(k gesture.Key)   { v.push(Event{Kind: KeyUp, Key: k}) }

// Nav injects a nav pad press.
func (v *Virtual) Nav(d gesture.Direction) { v.push(Event{Kind: Nav, Dir: d, Value: 127}) }

// Expression injects a pedal reading.
func (v *Virtual) Expression(value int) { v.push(Event{Kind: Expression, Value: value}) }

func (v *Virtual) push(ev Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.events <- ev:
	default:
	}
}

func (v *Virtual) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.closed = true
		close(v.events)
	}
	return nil
}
