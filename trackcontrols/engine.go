package trackcontrols

import (
	"fmt"

	"modestep/config"
	"modestep/debug"
)

// DefaultAction is bound to key 5 when nothing else is configured.
const DefaultAction = config.ActionSessionRecord

// DefaultControls are the factory controls for slots 1-5, identical on both rows.
var DefaultControls = [config.NumTrackControls]config.TrackControl{
	config.ControlVolume,
	config.ControlArm,
	config.ControlSolo,
	config.ControlMute,
	config.ControlClipLaunch,
}

// Engine holds the five track controls slots for a session.
type Engine struct {
	cfg   *config.Configuration
	slots [config.NumTrackControls]Slot
}

// NewEngine builds slots from the configuration.
func NewEngine(cfg *config.Configuration) *Engine {
	e := &Engine{cfg: cfg}
	e.Reset()
	return e
}

// Reset restores every slot to its configured state.
func (e *Engine) Reset() {
	for i := range e.slots {
		n := i + 1
		s := Slot{
			Top:     DefaultControls[i],
			Bottom:  DefaultControls[i],
			Action:  DefaultAction,
			Enabled: true,
		}
		if o, ok := e.cfg.OverrideTrackControls[n]; ok {
			if o == nil {
				s.Enabled = false
			} else {
				s.Top, s.Bottom, s.Action = o.Top, o.Bottom, o.Action
			}
		}
		e.slots[i] = s
	}
}

// Slot returns slot n (1-based).
func (e *Engine) Slot(n int) Slot {
	if n < 1 || n > config.NumTrackControls {
		return Slot{}
	}
	return e.slots[n-1]
}

// Enabled reports whether slot n has controls.
func (e *Engine) Enabled(n int) bool {
	return e.Slot(n).Enabled
}

// Set stores new controls for slot n and enables it.
func (e *Engine) Set(n int, top, bottom config.TrackControl, action config.Action) error {
	if n < 1 || n > config.NumTrackControls {
		return fmt.Errorf("track controls %d out of range", n)
	}
	if !top.Valid() || !bottom.Valid() || !action.Valid() {
		return fmt.Errorf("track controls %d: invalid controls %q/%q/%q", n, top, bottom, action)
	}
	s := &e.slots[n-1]
	s.Top, s.Bottom, s.Action, s.Enabled = top, bottom, action, true
	debug.Log("track", "slot %d set to %s/%s action=%s", n, top, bottom, action)
	return nil
}

// Disable removes the controls from slot n. The action binding is kept so a
// recreated slot starts from it.
func (e *Engine) Disable(n int) {
	if n < 1 || n > config.NumTrackControls {
		return
	}
	e.slots[n-1].Enabled = false
	debug.Log("track", "slot %d disabled", n)
}
