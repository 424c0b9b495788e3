package config

import (
	"fmt"
	"strconv"
	"strings"
)

// MainMode names a mode that can be bound to a mode select key.
type MainMode string

const (
	ModeSelect                    MainMode = "mode_select"
	ModeTransport                 MainMode = "transport"
	ModeUtility                   MainMode = "utility"
	ModeDeviceBankSelect          MainMode = "device_bank_select"
	ModeDeviceExpressionMap       MainMode = "device_expression_map"
	ModeDeviceParametersIncrement MainMode = "device_parameters_increment"
	ModeDeviceParametersPressure  MainMode = "device_parameters_pressure"
	ModeDeviceParametersLatch     MainMode = "device_parameters_pressure_latch"
	ModeDeviceParametersXY        MainMode = "device_parameters_xy"
)

// Prefixes for indexed modes.
const (
	TrackControlsPrefix     = "track_controls_"
	EditTrackControlsPrefix = "edit_track_controls_"
	StandalonePrefix        = "standalone_"
)

const (
	NumTrackControls   = 5
	NumStandaloneModes = 16
)

// TrackControlsMode returns e.g. "track_controls_3".
func TrackControlsMode(n int) MainMode {
	return MainMode(TrackControlsPrefix + strconv.Itoa(n))
}

// EditTrackControlsMode returns e.g. "edit_track_controls_3".
func EditTrackControlsMode(n int) MainMode {
	return MainMode(EditTrackControlsPrefix + strconv.Itoa(n))
}

// StandaloneMode returns e.g. "standalone_12".
func StandaloneMode(n int) MainMode {
	return MainMode(StandalonePrefix + strconv.Itoa(n))
}

// Index returns the numeric suffix of an indexed mode, or 0.
func (m MainMode) Index() int {
	s := string(m)
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// Valid reports whether m is a known mode name.
func (m MainMode) Valid() bool {
	switch m {
	case ModeSelect, ModeTransport, ModeUtility, ModeDeviceBankSelect,
		ModeDeviceExpressionMap, ModeDeviceParametersIncrement,
		ModeDeviceParametersPressure, ModeDeviceParametersLatch,
		ModeDeviceParametersXY:
		return true
	}
	s := string(m)
	n := m.Index()
	switch {
	case strings.HasPrefix(s, EditTrackControlsPrefix), strings.HasPrefix(s, TrackControlsPrefix):
		return n >= 1 && n <= NumTrackControls
	case strings.HasPrefix(s, StandalonePrefix):
		return n >= 1 && n <= NumStandaloneModes
	}
	return false
}

// KeySafetyStrategy governs which concurrent key presses may change a
// selection.
type KeySafetyStrategy string

const (
	SingleKey       KeySafetyStrategy = "single_key"
	AdjacentLockout KeySafetyStrategy = "adjacent_lockout"
	AllKeys         KeySafetyStrategy = "all_keys"
)

func (s KeySafetyStrategy) Valid() bool {
	return s == SingleKey || s == AdjacentLockout || s == AllKeys
}

// Action is a single-key action from the transport and utility modes.
type Action string

const (
	ActionAutomationArm         Action = "automation_arm"
	ActionAutoArm               Action = "auto_arm"
	ActionBacklight             Action = "backlight"
	ActionCaptureAndInsertScene Action = "capture_and_insert_scene"
	ActionCaptureMIDI           Action = "capture_midi"
	ActionDeviceLock            Action = "device_lock"
	ActionLaunchSelectedScene   Action = "launch_selected_scene"
	ActionMetronome             Action = "metronome"
	ActionPlayToggle            Action = "play_toggle"
	ActionArrangementRecord     Action = "arrangement_record"
	ActionRedo                  Action = "redo"
	ActionQuantize              Action = "quantize"
	ActionSelectedTrackArm      Action = "selected_track_arm"
	ActionSessionRecord         Action = "session_record"
	ActionStopAllClips          Action = "stop_all_clips"
	ActionTapTempo              Action = "tap_tempo"
	ActionUndo                  Action = "undo"
	ActionNew                   Action = "new"
)

// ActionAbbreviations are the four-character display texts for each action.
var ActionAbbreviations = map[Action]string{
	ActionArrangementRecord:     "Rec",
	ActionAutoArm:               "AAr",
	ActionAutomationArm:         "Aut",
	ActionBacklight:             "BaK",
	ActionCaptureAndInsertScene: "CpSc",
	ActionCaptureMIDI:           "CpMD",
	ActionDeviceLock:            "LocK",
	ActionLaunchSelectedScene:   "LnSc",
	ActionMetronome:             "Met",
	ActionNew:                   "NwCl",
	ActionPlayToggle:            "Play",
	ActionQuantize:              "Quan",
	ActionRedo:                  "Redo",
	ActionSelectedTrackArm:      "ArmT",
	ActionSessionRecord:         "SRec",
	ActionStopAllClips:          "StCl",
	ActionTapTempo:              "TapT",
	ActionUndo:                  "Undo",
}

func (a Action) Valid() bool {
	_, ok := ActionAbbreviations[a]
	return ok
}

// TrackControl is a per-track control that can fill a track controls row.
type TrackControl string

const (
	ControlArm           TrackControl = "arm"
	ControlClipLaunch    TrackControl = "clip_launch"
	ControlMute          TrackControl = "mute"
	ControlSolo          TrackControl = "solo"
	ControlStopTrackClip TrackControl = "stop_track_clip"
	ControlTrackSelect   TrackControl = "track_select"
	ControlVolume        TrackControl = "volume"
)

// TrackControlNames are the display names for track controls.
var TrackControlNames = map[TrackControl]string{
	ControlTrackSelect:   "SeL",
	ControlArm:           "Arm",
	ControlMute:          "Mute",
	ControlSolo:          "Solo",
	ControlVolume:        "Vol",
	ControlClipLaunch:    "Clip",
	ControlStopTrackClip: "Stop",
}

func (c TrackControl) Valid() bool {
	_, ok := TrackControlNames[c]
	return ok
}

// Quantization grid names, matching the host's recording quantization.
type Quantization string

var quantizations = []Quantization{
	"quarter", "eight", "eight_triplet", "eight_eight_triplet",
	"sixtenth", "sixtenth_triplet", "sixtenth_sixtenth_triplet", "thirtysecond",
}

func (q Quantization) Valid() bool {
	for _, v := range quantizations {
		if v == q {
			return true
		}
	}
	return false
}

// ClipSlotAction is a behaviour for long pressing a clip.
type ClipSlotAction string

const StopTrackClips ClipSlotAction = "stop_track_clips"

func validationError(field string, value any) error {
	return fmt.Errorf("invalid %s: %v", field, value)
}

// NavigationTarget is what one axis of the nav pad moves.
type NavigationTarget string

const (
	NavSelectedTrack     NavigationTarget = "selected_track"
	NavSelectedScene     NavigationTarget = "selected_scene"
	NavSelectedDevice    NavigationTarget = "selected_device"
	NavDeviceBank        NavigationTarget = "device_bank"
	NavSessionRingTracks NavigationTarget = "session_ring_tracks"
	NavSessionRingScenes NavigationTarget = "session_ring_scenes"
)

func (t NavigationTarget) Valid() bool {
	switch t {
	case NavSelectedTrack, NavSelectedScene, NavSelectedDevice, NavDeviceBank,
		NavSessionRingTracks, NavSessionRingScenes:
		return true
	}
	return false
}
