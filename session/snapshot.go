package session

import (
	"sync"
	"time"

	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/modes"
	"modestep/protocol"
)

// Snapshot is a copy of session state for readers off the loop.
type Snapshot struct {
	ID         string
	Project    string
	Device     string
	State      protocol.State
	Err        error
	Mode       modes.Mode
	Previous   modes.Mode
	Standalone bool

	// What the controller shows, popups included.
	Text string
	LEDs [gesture.NumKeys]midi.LED

	Held      []gesture.Key
	LongPress time.Duration
	Tracks    []host.Track
	Selected  int
}

type snapshotBox struct {
	mu   sync.Mutex
	snap Snapshot
}

// Snapshot returns the state as of the last loop turn.
func (s *Session) Snapshot() Snapshot {
	s.snap.mu.Lock()
	defer s.snap.mu.Unlock()
	return s.snap.snap
}

// Updates signals (coalesced) that a new Snapshot is available.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) publish() {
	frame := s.pipeline.Current()
	h := s.nav.History()
	snap := Snapshot{
		ID:         s.id.String(),
		Project:    s.host.ProjectName(),
		Device:     s.device,
		State:      s.ctl.State(),
		Err:        s.lastErr,
		Mode:       s.nav.Mode(),
		Previous:   h.Previous,
		Standalone: s.ctl.Standalone(),
		Text:       frame.Text,
		LEDs:       frame.LEDs,
		Held:       s.keys.Held(),
		LongPress:  s.cfg.LongPressDelay.Duration(),
		Tracks:     s.host.Tracks(),
		Selected:   s.host.SelectedTrack(),
	}

	s.snap.mu.Lock()
	s.snap.snap = snap
	s.snap.mu.Unlock()

	select {
	case s.updates <- struct{}{}:
	default:
	}
}
