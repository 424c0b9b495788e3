package modes

import (
	"modestep/config"
	"modestep/debug"
	"modestep/gesture"
	"modestep/midi"
)

// Entry is what a mode select key enters: Primary on press, Alternate on
// long press.
type Entry struct {
	Primary   Mode
	Alternate Mode
}

// ModeSelectMap builds the mode select key bindings with override_modes
// applied. A key overridden with null is left out.
func ModeSelectMap(cfg *config.Configuration) map[gesture.Key]Entry {
	m := map[gesture.Key]Entry{
		6: {config.ModeDeviceParametersXY, config.ModeDeviceBankSelect},
		7: {config.ModeDeviceParametersPressure, config.ModeDeviceParametersLatch},
		8: {config.ModeDeviceParametersIncrement, config.ModeDeviceExpressionMap},
		9: {config.ModeTransport, config.ModeUtility},
	}
	for n := 1; n <= config.NumTrackControls; n++ {
		m[gesture.Key(n)] = Entry{config.TrackControlsMode(n), config.EditTrackControlsMode(n)}
	}
	for physical, o := range cfg.OverrideModes {
		k := gesture.KeyFromPhysical(physical)
		if !k.Valid() || k == gesture.ModeKey {
			debug.Warn("modes", "override_modes: no mode select key %d", physical)
			continue
		}
		if o == nil {
			delete(m, k)
			continue
		}
		m[k] = Entry{Primary: o.Primary, Alternate: o.Alternate}
	}
	return m
}

// TransportKeyMap is the default transport mode layout, also the primary
// action category of the edit flow.
var TransportKeyMap = map[gesture.Key]config.Action{
	6: config.ActionStopAllClips,
	7: config.ActionSelectedTrackArm,
	8: config.ActionAutomationArm,
	9: config.ActionTapTempo,
	1: config.ActionLaunchSelectedScene,
	2: config.ActionArrangementRecord,
	3: config.ActionPlayToggle,
	4: config.ActionMetronome,
	5: config.ActionSessionRecord,
}

// UtilityKeyMap is the default utility mode layout, also the secondary
// action category of the edit flow.
var UtilityKeyMap = map[gesture.Key]config.Action{
	6: config.ActionBacklight,
	7: config.ActionRedo,
	8: config.ActionQuantize,
	9: config.ActionNew,
	1: config.ActionAutoArm,
	2: config.ActionUndo,
	3: config.ActionCaptureMIDI,
	4: config.ActionCaptureAndInsertScene,
	5: config.ActionSessionRecord,
}

// EditControlKeys are the control choices on the edit screens.
var EditControlKeys = map[gesture.Key]config.TrackControl{
	6: config.ControlTrackSelect,
	8: config.ControlStopTrackClip,
	9: config.ControlClipLaunch,
	1: config.ControlVolume,
	2: config.ControlArm,
	3: config.ControlSolo,
	4: config.ControlMute,
}

// ElementOverrides returns the per-key action overrides for a mode.
func ElementOverrides(cfg *config.Configuration, m Mode) map[gesture.Key]config.Action {
	list := cfg.OverrideElements[m]
	if len(list) == 0 {
		return nil
	}
	out := make(map[gesture.Key]config.Action, len(list))
	for _, o := range list {
		if o.Nav() {
			continue
		}
		k := gesture.KeyFromPhysical(o.Key)
		if !k.Valid() || k == gesture.ModeKey {
			debug.Warn("modes", "override_elements %s: no key %d", m, o.Key)
			continue
		}
		out[k] = o.Action
	}
	return out
}

// NavTargets are what the nav pad's horizontal and vertical axes move.
type NavTargets struct {
	Horizontal config.NavigationTarget
	Vertical   config.NavigationTarget
}

// NavTargetsFor returns the nav pad assignment for a mode: device modes move
// through devices and banks, track controls move the session ring, other
// hosted modes move the selection. Nav entries in override_elements replace
// either axis.
func NavTargetsFor(cfg *config.Configuration, m Mode) NavTargets {
	var t NavTargets
	switch {
	case IsHidden(m), IsStandalone(m):
		return t
	case IsDevice(m):
		t = NavTargets{config.NavSelectedDevice, config.NavDeviceBank}
	case IsTrackControls(m), IsEdit(m):
		t = NavTargets{config.NavSessionRingTracks, config.NavSessionRingScenes}
	default:
		t = NavTargets{config.NavSelectedTrack, config.NavSelectedScene}
	}
	for _, o := range cfg.OverrideElements[m] {
		if !o.Nav() {
			continue
		}
		if o.Horizontal != "" {
			t.Horizontal = o.Horizontal
		}
		if o.Vertical != "" {
			t.Vertical = o.Vertical
		}
	}
	return t
}

type actionColors struct{ on, off midi.LED }

var actionLEDs = map[config.Action]actionColors{
	config.ActionArrangementRecord:     {midi.RedBlink(), midi.RedOn()},
	config.ActionAutoArm:               {midi.GreenOn(), midi.RedOn()},
	config.ActionAutomationArm:         {midi.YellowOn(), midi.Off},
	config.ActionBacklight:             {midi.GreenOn(), midi.RedOn()},
	config.ActionCaptureAndInsertScene: {midi.GreenOn(), midi.GreenOn()},
	config.ActionCaptureMIDI:           {midi.RedOn(), midi.RedOn()},
	config.ActionDeviceLock:            {midi.GreenOn(), midi.RedOn()},
	config.ActionLaunchSelectedScene:   {midi.GreenOn(), midi.GreenOn()},
	config.ActionMetronome:             {midi.YellowOn(), midi.Off},
	config.ActionNew:                   {midi.RedOn(), midi.RedOn()},
	config.ActionPlayToggle:            {midi.GreenBlink(), midi.GreenOn()},
	config.ActionQuantize:              {midi.YellowOn(), midi.YellowOn()},
	config.ActionRedo:                  {midi.GreenOn(), midi.GreenOn()},
	config.ActionSelectedTrackArm:      {midi.GreenOn(), midi.RedOn()},
	config.ActionSessionRecord:         {midi.RedBlink(), midi.RedOn()},
	config.ActionStopAllClips:          {midi.RedOn(), midi.RedOn()},
	config.ActionTapTempo:              {midi.YellowOn(), midi.YellowOn()},
	config.ActionUndo:                  {midi.RedOn(), midi.RedOn()},
}

// ActionLED is the LED for an action key given the host's state.
func ActionLED(a config.Action, on bool) midi.LED {
	c, ok := actionLEDs[a]
	if !ok {
		return midi.Off
	}
	if on {
		return c.on
	}
	return c.off
}

var controlLEDs = map[config.TrackControl]midi.LED{
	config.ControlTrackSelect:   midi.GreenBlink(),
	config.ControlArm:           midi.RedBlink(),
	config.ControlMute:          midi.YellowBlink(),
	config.ControlSolo:          midi.GreenBlink(),
	config.ControlVolume:        midi.YellowBlink(),
	config.ControlClipLaunch:    midi.GreenBlink(),
	config.ControlStopTrackClip: midi.RedBlink(),
}

func blink(l midi.LED) midi.LED {
	if !l.Lit() {
		return l
	}
	return midi.LED{Mode: midi.LEDBlink, Color: l.Color}
}
