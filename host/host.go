// Package host describes what the modes need from the performance host, and
// provides an in-memory host for the monitor and tests.
package host

import "modestep/config"

// Track is a channel strip as seen through the session ring.
type Track struct {
	Name    string
	Arm     bool
	Mute    bool
	Solo    bool
	Volume  float64
	Armable bool
}

// ClipState is the playback state of a clip slot.
type ClipState int

const (
	ClipEmpty ClipState = iota
	ClipStopped
	ClipTriggered
	ClipPlaying
	ClipRecording
)

func (s ClipState) String() string {
	switch s {
	case ClipEmpty:
		return "empty"
	case ClipStopped:
		return "stopped"
	case ClipTriggered:
		return "triggered"
	case ClipPlaying:
		return "playing"
	case ClipRecording:
		return "recording"
	}
	return "unknown"
}

// Parameter is a device parameter in the selected bank, normalized to 0..1.
type Parameter struct {
	Name  string
	Value float64
}

// TrackProvider gives access to tracks in the session ring. Indexes are
// offsets into the ring; out-of-range indexes are ignored.
type TrackProvider interface {
	Tracks() []Track
	SelectedTrack() int
	SelectTrack(i int)
	SetArm(i int, on bool)
	SetMute(i int, on bool)
	SetSolo(i int, on bool)
	SetVolume(i int, v float64)
}

// ClipProvider launches and stops clips, addressed by ring offsets.
// QuantizeClip acts on the clip at the selected track and scene.
type ClipProvider interface {
	ClipState(track, scene int) ClipState
	LaunchClip(track, scene int)
	StopTrackClips(track int)
	StopAllClips()
	QuantizeClip(to config.Quantization, amount float64)
}

// SessionRingProvider moves the window of tracks and scenes bound to the
// controller.
type SessionRingProvider interface {
	Offset() (track, scene int)
	Size() (tracks, scenes int)
	Scroll(tracks, scenes int)
}

// SelectionProvider steps the selected track, scene and device through the
// whole set, not just the session ring. Steps stop at either end.
type SelectionProvider interface {
	StepTrack(delta int)
	SelectedScene() int
	StepScene(delta int)
	SelectedDevice() int
	StepDevice(delta int)
}

// DeviceProvider exposes the selected device's parameter banks.
type DeviceProvider interface {
	Parameters() []Parameter
	SetParameter(i int, v float64)
	Bank() int
	Banks() int
	SelectBank(i int)
	Locked() bool
	ToggleLock()
}

// ActionPerformer runs transport and utility actions.
type ActionPerformer interface {
	Perform(a config.Action)
	ActionState(a config.Action) bool
}

// ProjectMetadata is where per-project configuration markers live.
type ProjectMetadata interface {
	ProjectName() string
	ClipNames() []string
}

// Host is everything above.
type Host interface {
	TrackProvider
	ClipProvider
	SessionRingProvider
	SelectionProvider
	DeviceProvider
	ActionPerformer
	ProjectMetadata
}

// Configurable hosts receive the effective configuration at session start.
type Configurable interface {
	Configure(cfg *config.Configuration)
}
