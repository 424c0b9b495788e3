package midi

import (
	"fmt"

	"modestep/gesture"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Hosted-mode CC assignments
const (
	CCKeyFirst     uint8 = 40
	CCKeyLast      uint8 = 79
	CCNavFirst     uint8 = 80
	CCNavLast      uint8 = 83
	CCExpression   uint8 = 86
	CCDisplayBase  uint8 = 50
	CCLEDRedBase   uint8 = 20
	CCLEDGreenBase uint8 = 110

	// The nav-left CC doubles as the exit control in standalone presets.
	CCExit = CCNavFirst

	DisplayWidth = 4
)

// EventKind is the type of an inbound message.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	KeyPressure
	Nav
	Expression
	ProgramChange
	IdentityReply
	// Unrecognized is a control change outside the hosted assignments, such
	// as display or LED messages echoed back after a reconnect.
	Unrecognized
)

func (k EventKind) String() string {
	switch k {
	case KeyDown:
		return "key-down"
	case KeyUp:
		return "key-up"
	case KeyPressure:
		return "pressure"
	case Nav:
		return "nav"
	case Expression:
		return "expression"
	case ProgramChange:
		return "program-change"
	case IdentityReply:
		return "identity-reply"
	case Unrecognized:
		return "unrecognized"
	}
	return "unknown"
}

// Event is a decoded inbound message. Key is set for key events (including
// gesture.ExitKey), Dir for nav pad presses, Value for pressure, nav,
// expression and program changes,
// Data for identity replies. X and Y are the corner tilt of a pressure event:
// right minus left and up minus down.
type Event struct {
	Kind  EventKind
	Key   gesture.Key
	Dir   gesture.Direction
	Value int
	X, Y  int
	Data  []byte
}

func (e Event) String() string {
	switch e.Kind {
	case KeyDown, KeyUp:
		return fmt.Sprintf("%s %v", e.Kind, e.Key)
	case KeyPressure:
		return fmt.Sprintf("%s %v=%d", e.Kind, e.Key, e.Value)
	case Nav:
		return fmt.Sprintf("%s %v", e.Kind, e.Dir)
	case IdentityReply:
		return fmt.Sprintf("%s % X", e.Kind, e.Data)
	}
	return fmt.Sprintf("%s %d", e.Kind, e.Value)
}

// Decoder turns raw messages into events. A key is down while any of its four
// corner sensors reports non-zero pressure. Not safe for concurrent use.
type Decoder struct {
	corners [gesture.NumKeys][4]uint8
	down    [gesture.NumKeys]bool
	nav     [4]bool
}

// KeyCC returns the CC for one corner of a key. Directions are up, right,
// left, down.
func KeyCC(k gesture.Key, direction int) uint8 {
	row, col := k.Position()
	return CCKeyFirst + uint8(col*8+row*4+direction)
}

func keyForCC(cc uint8) (gesture.Key, int) {
	idx := int(cc - CCKeyFirst)
	col := idx / 8
	row := (idx % 8) / 4
	return gesture.KeyAt(row, col), idx % 4
}

// Decode converts one message. Unknown control changes decode to Unrecognized;
// other unknown messages yield nothing.
func (d *Decoder) Decode(msg gomidi.Message) []Event {
	var channel, cc, value, program uint8
	var data []byte

	switch {
	case msg.GetControlChange(&channel, &cc, &value):
		return d.control(cc, value)
	case msg.GetProgramChange(&channel, &program):
		return []Event{{Kind: ProgramChange, Value: int(program)}}
	case msg.GetSysEx(&data):
		if IsIdentityReply(data) {
			return []Event{{Kind: IdentityReply, Data: append([]byte(nil), data...)}}
		}
	}
	return nil
}

func (d *Decoder) control(cc, value uint8) []Event {
	switch {
	case cc >= CCKeyFirst && cc <= CCKeyLast:
		k, dir := keyForCC(cc)
		d.corners[k][dir] = value
		var max uint8
		for _, v := range d.corners[k] {
			if v > max {
				max = v
			}
		}
		c := d.corners[k]
		events := []Event{{
			Kind:  KeyPressure,
			Key:   k,
			Value: int(max),
			X:     int(c[1]) - int(c[2]),
			Y:     int(c[0]) - int(c[3]),
		}}
		if max > 0 && !d.down[k] {
			d.down[k] = true
			events = append(events, Event{Kind: KeyDown, Key: k})
		} else if max == 0 && d.down[k] {
			d.down[k] = false
			events = append(events, Event{Kind: KeyUp, Key: k})
		}
		return events
	case cc >= CCNavFirst && cc <= CCNavLast:
		return d.navPad(cc, value)
	case cc == CCExpression:
		return []Event{{Kind: Expression, Value: int(value)}}
	}
	return []Event{{Kind: Unrecognized, Value: int(cc)}}
}

// navPad reports a nav event when a direction is first pressed. Nav left
// also drives the exit control.
func (d *Decoder) navPad(cc, value uint8) []Event {
	i := cc - CCNavFirst
	pressed := value > 0
	if pressed == d.nav[i] {
		return nil
	}
	d.nav[i] = pressed

	var events []Event
	if pressed {
		events = append(events, Event{Kind: Nav, Dir: gesture.Direction(i), Value: int(value)})
	}
	if cc == CCExit {
		kind := KeyUp
		if pressed {
			kind = KeyDown
		}
		events = append(events, Event{Kind: kind, Key: gesture.ExitKey})
	}
	return events
}

// Reset forgets pressure state, e.g. after a reconnect.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// IsIdentityReply reports whether sysex data (without F0/F7) is a universal
// identity reply.
func IsIdentityReply(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x7E && data[2] == 0x06 && data[3] == 0x02
}
