// Package modes owns the active mode: the mode select overlay, quick-switch
// history, the track controls edit flow and the per-mode key handlers.
package modes

import (
	"strings"

	"modestep/config"
)

// Mode names a navigator state. Every main mode from the configuration is a
// Mode; names starting with an underscore are hidden.
type Mode = config.MainMode

// Hidden modes
const (
	Disabled       Mode = "_disabled"
	StandaloneInit Mode = "_standalone_init"
)

// IsHidden reports whether m is an internal mode that shows nothing.
func IsHidden(m Mode) bool {
	return strings.HasPrefix(string(m), "_")
}

// IsEdit reports whether m is an edit_track_controls mode.
func IsEdit(m Mode) bool {
	return strings.HasPrefix(string(m), config.EditTrackControlsPrefix)
}

// IsTrackControls reports whether m is a track_controls mode.
func IsTrackControls(m Mode) bool {
	return strings.HasPrefix(string(m), config.TrackControlsPrefix)
}

// IsStandalone reports whether m runs on the controller's own presets.
func IsStandalone(m Mode) bool {
	return strings.HasPrefix(string(m), config.StandalonePrefix)
}

// IsDevice reports whether m controls device parameters.
func IsDevice(m Mode) bool {
	return strings.HasPrefix(string(m), "device_")
}

// IsTransient reports whether m is left out of the quick-switch history.
func IsTransient(m Mode) bool {
	return m == config.ModeSelect || IsEdit(m) || IsHidden(m)
}

// Program is the zero-indexed preset for a standalone mode.
func Program(m Mode) int {
	return m.Index() - 1
}

var displayNames = map[Mode]string{
	config.ModeDeviceBankSelect:          "BanK",
	config.ModeDeviceExpressionMap:       "Expr",
	config.ModeDeviceParametersIncrement: "Incr",
	config.ModeDeviceParametersPressure:  "Prss",
	config.ModeDeviceParametersLatch:     "PrLt",
	config.ModeDeviceParametersXY:        " XY ",
	config.ModeSelect:                    " __  __ ",
	config.ModeTransport:                 "Trns",
	config.ModeUtility:                   "Util",
}

// DisplayName is the fixed name of a mode, or "" for modes whose text is
// computed (track controls, edit) or hidden.
func DisplayName(m Mode) string {
	return displayNames[m]
}
