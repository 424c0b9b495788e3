package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"modestep/debug"
	"modestep/gesture"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var sendCount uint64

// SoftStepController drives a SoftStep over a pair of MIDI ports.
type SoftStepController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	codec    Codec
	send     func(msg gomidi.Message) error
	stopFunc func()

	mu      sync.Mutex
	decoder Decoder
	events  chan Event
	closed  bool
}

// NewSoftStepController opens the given ports. Either may be nil.
func NewSoftStepController(id string, inPort drivers.In, outPort drivers.Out, codec Codec) (*SoftStepController, error) {
	ss := &SoftStepController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		codec:   codec,
		events:  make(chan Event, 64),
	}

	// Open output
	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		ss.send = send
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, ss.receive, gomidi.UseSysEx())
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		ss.stopFunc = stop
	}

	return ss, nil
}

func (ss *SoftStepController) receive(msg gomidi.Message, timestampms int32) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return
	}
	for _, ev := range ss.decoder.Decode(msg) {
		select {
		case ss.events <- ev:
		default:
			debug.LogEvery(20, "softstep", "event queue full, dropped %s", ev)
		}
	}
}

func (ss *SoftStepController) ID() string {
	return ss.id
}

func (ss *SoftStepController) Events() <-chan Event {
	return ss.events
}

func (ss *SoftStepController) write(msgs ...gomidi.Message) error {
	if ss.send == nil {
		return nil
	}
	for _, m := range msgs {
		if err := ss.send(m); err != nil {
			return fmt.Errorf("send %s: %w", m, err)
		}
	}
	n := atomic.AddUint64(&sendCount, uint64(len(msgs)))
	if n%100 < uint64(len(msgs)) {
		debug.Log("softstep", "send count=%d", n)
	}
	return nil
}

func (ss *SoftStepController) IdentityQuery() error {
	return ss.write(ss.codec.IdentityRequest())
}

func (ss *SoftStepController) SetDisplayText(text string) error {
	return ss.write(ss.codec.DisplayText(text)...)
}

func (ss *SoftStepController) SetLED(key gesture.Key, led LED) error {
	return ss.write(ss.codec.LED(key, led)...)
}

func (ss *SoftStepController) SendProgram(p StandaloneProgram) error {
	debug.Log("softstep", "PC %s", p)
	return ss.write(ss.codec.Program(p.Program))
}

func (ss *SoftStepController) EnterStandalone() error {
	return ss.write(ss.codec.Standalone(true)...)
}

func (ss *SoftStepController) ExitStandalone() error {
	return ss.write(ss.codec.Standalone(false)...)
}

func (ss *SoftStepController) SetBacklight(on bool) error {
	return ss.write(ss.codec.Backlight(on)...)
}

// Close stops listening. Goodbye messages are the caller's job since the
// port may already be gone.
func (ss *SoftStepController) Close() error {
	if ss.stopFunc != nil {
		ss.stopFunc()
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.closed {
		ss.closed = true
		close(ss.events)
	}
	return nil
}
