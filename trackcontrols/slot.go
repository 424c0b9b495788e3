// Package trackcontrols builds the per-track control grids bound to the
// track_controls_N modes and owns their edit flow.
package trackcontrols

import (
	"modestep/config"
	"modestep/gesture"
)

// DisabledText is shown for a slot with no controls.
const DisabledText = "*?&$"

// Slot is the state of one track controls mode.
type Slot struct {
	Top     config.TrackControl
	Bottom  config.TrackControl
	Action  config.Action
	Enabled bool
}

// Split reports whether the rows carry different controls.
func (s Slot) Split() bool {
	return s.Top != s.Bottom
}

// DisplayText is the mode name shown while the slot is active.
func (s Slot) DisplayText() string {
	if !s.Enabled {
		return DisabledText
	}
	if !s.Split() {
		return config.TrackControlNames[s.Top]
	}
	return prefix(config.TrackControlNames[s.Top], 2) + prefix(config.TrackControlNames[s.Bottom], 2)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// Binding is what one grid key controls. Track and Scene are offsets into
// the session ring.
type Binding struct {
	Control config.TrackControl
	Track   int
	Scene   int
}

// TracksPerRow is the number of track keys in a row; the fifth column holds
// the action and mode keys.
const TracksPerRow = 4

// Layout maps the track keys of a slot to bindings. Identical controls span
// eight tracks, top row first. Differing controls give the top row the top
// control and the bottom row the bottom control, both over tracks 1-4. With
// identical clip_launch controls and wide clip launch off, the rows are two
// scenes of the same four tracks instead.
func (s Slot) Layout(wideClipLaunch bool) map[gesture.Key]Binding {
	layout := make(map[gesture.Key]Binding, 2*TracksPerRow)
	for col := 0; col < TracksPerRow; col++ {
		top := gesture.KeyAt(0, col)
		bottom := gesture.KeyAt(1, col)
		switch {
		case s.Split():
			layout[top] = Binding{Control: s.Top, Track: col}
			layout[bottom] = Binding{Control: s.Bottom, Track: col}
		case s.Top == config.ControlClipLaunch && !wideClipLaunch:
			layout[top] = Binding{Control: s.Top, Track: col}
			layout[bottom] = Binding{Control: s.Top, Track: col, Scene: 1}
		default:
			layout[top] = Binding{Control: s.Top, Track: col}
			layout[bottom] = Binding{Control: s.Top, Track: col + TracksPerRow}
		}
	}
	return layout
}
