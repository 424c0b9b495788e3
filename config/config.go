package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Seconds is a duration expressed as fractional seconds in config files.
type Seconds float64

func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// TrackControlsOverride is a [top, bottom, action] triple.
type TrackControlsOverride struct {
	Top    TrackControl
	Bottom TrackControl
	Action Action
}

func (o TrackControlsOverride) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{string(o.Top), string(o.Bottom), string(o.Action)})
}

func (o TrackControlsOverride) MarshalYAML() (any, error) {
	return []string{string(o.Top), string(o.Bottom), string(o.Action)}, nil
}

func (o *TrackControlsOverride) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return o.set(raw)
}

func (o *TrackControlsOverride) UnmarshalYAML(node *yaml.Node) error {
	var raw []string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return o.set(raw)
}

func (o *TrackControlsOverride) set(raw []string) error {
	if len(raw) != 3 {
		return fmt.Errorf("track controls override needs [top, bottom, action], got %d values", len(raw))
	}
	o.Top, o.Bottom, o.Action = TrackControl(raw[0]), TrackControl(raw[1]), Action(raw[2])
	return nil
}

// ModeOverride is a [primary, alternate] pair for a mode select key. The
// alternate (long-press) mode is optional.
type ModeOverride struct {
	Primary   MainMode
	Alternate MainMode
}

func (o ModeOverride) MarshalJSON() ([]byte, error) {
	var alt *MainMode
	if o.Alternate != "" {
		alt = &o.Alternate
	}
	return json.Marshal([]any{o.Primary, alt})
}

func (o ModeOverride) MarshalYAML() (any, error) {
	if o.Alternate == "" {
		return []any{o.Primary}, nil
	}
	return []any{o.Primary, o.Alternate}, nil
}

func (o *ModeOverride) UnmarshalJSON(data []byte) error {
	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return o.set(raw)
}

func (o *ModeOverride) UnmarshalYAML(node *yaml.Node) error {
	var raw []*string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return o.set(raw)
}

func (o *ModeOverride) set(raw []*string) error {
	if len(raw) < 1 || len(raw) > 2 || raw[0] == nil {
		return fmt.Errorf("mode override needs [primary, alternate?]")
	}
	o.Primary = MainMode(*raw[0])
	o.Alternate = ""
	if len(raw) == 2 && raw[1] != nil {
		o.Alternate = MainMode(*raw[1])
	}
	return nil
}

// ElementOverride rebinds a physical key in a mode to an action. An entry
// without a key replaces the nav pad targets instead; an empty axis keeps the
// mode's default.
type ElementOverride struct {
	Key        int              `json:"key,omitempty" yaml:"key,omitempty"`
	Action     Action           `json:"action,omitempty" yaml:"action,omitempty"`
	Horizontal NavigationTarget `json:"horizontal,omitempty" yaml:"horizontal,omitempty"`
	Vertical   NavigationTarget `json:"vertical,omitempty" yaml:"vertical,omitempty"`
}

// Nav reports whether o overrides the nav pad.
func (o ElementOverride) Nav() bool {
	return o.Key == 0
}

func (o ElementOverride) valid() bool {
	if !o.Nav() {
		return o.Key >= 1 && o.Key <= 9 && o.Action.Valid() && o.Horizontal == "" && o.Vertical == ""
	}
	if o.Action != "" || (o.Horizontal == "" && o.Vertical == "") {
		return false
	}
	return (o.Horizontal == "" || o.Horizontal.Valid()) && (o.Vertical == "" || o.Vertical.Valid())
}

// Configuration is the effective, per-session set of options. Field names in
// files are snake_case so that per-project JSON payloads and the YAML user
// file share one vocabulary.
type Configuration struct {
	// Startup mode, and the "previous" mode used by the first quick-switch.
	InitialMode     MainMode `json:"initial_mode" yaml:"initial_mode"`
	InitialLastMode MainMode `json:"initial_last_mode" yaml:"initial_last_mode"`

	AutoArm bool `json:"auto_arm" yaml:"auto_arm"`

	// nil leaves the backlight unmanaged.
	Backlight           *bool `json:"backlight" yaml:"backlight"`
	DisconnectBacklight *bool `json:"disconnect_backlight" yaml:"disconnect_backlight"`

	ClipLongPressAction *ClipSlotAction `json:"clip_long_press_action" yaml:"clip_long_press_action"`
	WideClipLaunch      bool            `json:"wide_clip_launch" yaml:"wide_clip_launch"`

	QuantizeTo     Quantization `json:"quantize_to" yaml:"quantize_to"`
	QuantizeAmount float64      `json:"quantize_amount" yaml:"quantize_amount"`

	LinkSessionRingToSceneSelection bool `json:"link_session_ring_to_scene_selection" yaml:"link_session_ring_to_scene_selection"`
	LinkSessionRingToTrackSelection bool `json:"link_session_ring_to_track_selection" yaml:"link_session_ring_to_track_selection"`

	KeySafetyStrategy KeySafetyStrategy `json:"key_safety_strategy" yaml:"key_safety_strategy"`

	// CC value at which keys count as fully pressed.
	FullPressure int `json:"full_pressure" yaml:"full_pressure"`

	// Value change per second at light and full pressure, for incremental controls.
	IncrementalStepsPerSecond [2]float64 `json:"incremental_steps_per_second" yaml:"incremental_steps_per_second"`

	ExpressionPedalRange             [2]int `json:"expression_pedal_range" yaml:"expression_pedal_range"`
	ExpressionPedalMovementThreshold int    `json:"expression_pedal_movement_threshold" yaml:"expression_pedal_movement_threshold"`
	InitialExpressionParameter       *int   `json:"initial_expression_parameter" yaml:"initial_expression_parameter"`

	// Program (0-indexed) loaded while hosted, and on exit.
	BackgroundProgram *int `json:"background_program" yaml:"background_program"`
	DisconnectProgram *int `json:"disconnect_program" yaml:"disconnect_program"`

	OverrideTrackControls       map[int]*TrackControlsOverride `json:"override_track_controls" yaml:"override_track_controls"`
	OverrideKeySafetyStrategies map[MainMode]KeySafetyStrategy `json:"override_key_safety_strategies" yaml:"override_key_safety_strategies"`
	OverrideModes               map[int]*ModeOverride          `json:"override_modes" yaml:"override_modes"`
	OverrideElements            map[MainMode][]ElementOverride `json:"override_elements" yaml:"override_elements"`

	LongPressDelay   Seconds `json:"long_press_delay" yaml:"long_press_delay"`
	DeleteDelay      Seconds `json:"delete_delay" yaml:"delete_delay"`
	IdentityTimeout  Seconds `json:"identity_timeout" yaml:"identity_timeout"`
	IdentityAttempts int     `json:"identity_attempts" yaml:"identity_attempts"`
	ReconnectGrace   Seconds `json:"reconnect_grace" yaml:"reconnect_grace"`
}

// Default returns the built-in configuration.
func Default() Configuration {
	return Configuration{
		InitialMode:                      ModeTransport,
		InitialLastMode:                  ModeSelect,
		QuantizeTo:                       "sixtenth",
		QuantizeAmount:                   1.0,
		KeySafetyStrategy:                AllKeys,
		FullPressure:                     37,
		IncrementalStepsPerSecond:        [2]float64{10, 127},
		ExpressionPedalRange:             [2]int{0, 127},
		ExpressionPedalMovementThreshold: 2,
		LongPressDelay:                   0.5,
		DeleteDelay:                      1.0,
		IdentityTimeout:                  0.5,
		IdentityAttempts:                 3,
		ReconnectGrace:                   2.0,
	}
}

// SafetyStrategy returns the key safety strategy for a mode, honoring
// per-mode overrides.
func (c *Configuration) SafetyStrategy(mode MainMode) KeySafetyStrategy {
	if s, ok := c.OverrideKeySafetyStrategies[mode]; ok {
		return s
	}
	return c.KeySafetyStrategy
}

// Validate checks every enumerated name.
func (c *Configuration) Validate() error {
	if !c.InitialMode.Valid() {
		return validationError("initial_mode", c.InitialMode)
	}
	if !c.InitialLastMode.Valid() {
		return validationError("initial_last_mode", c.InitialLastMode)
	}
	if !c.KeySafetyStrategy.Valid() {
		return validationError("key_safety_strategy", c.KeySafetyStrategy)
	}
	if !c.QuantizeTo.Valid() {
		return validationError("quantize_to", c.QuantizeTo)
	}
	if c.ClipLongPressAction != nil && *c.ClipLongPressAction != StopTrackClips {
		return validationError("clip_long_press_action", *c.ClipLongPressAction)
	}
	for _, p := range []*int{c.BackgroundProgram, c.DisconnectProgram} {
		if p != nil && (*p < 0 || *p > 127) {
			return validationError("program", *p)
		}
	}
	for key, o := range c.OverrideTrackControls {
		if key < 1 || key > NumTrackControls {
			return validationError("override_track_controls key", key)
		}
		if o == nil {
			continue
		}
		if !o.Top.Valid() || !o.Bottom.Valid() || !o.Action.Valid() {
			return validationError("override_track_controls", *o)
		}
	}
	for mode, s := range c.OverrideKeySafetyStrategies {
		if !mode.Valid() || !s.Valid() {
			return validationError("override_key_safety_strategies", mode)
		}
	}
	for key, o := range c.OverrideModes {
		if key < 1 || key > 9 {
			return validationError("override_modes key", key)
		}
		if o == nil {
			continue
		}
		if !o.Primary.Valid() || (o.Alternate != "" && !o.Alternate.Valid()) {
			return validationError("override_modes", *o)
		}
	}
	for mode, overrides := range c.OverrideElements {
		if !mode.Valid() {
			return validationError("override_elements mode", mode)
		}
		for _, o := range overrides {
			if !o.valid() {
				return validationError("override_elements", o)
			}
		}
	}
	if c.LongPressDelay <= 0 || c.DeleteDelay <= 0 || c.IdentityTimeout <= 0 || c.IdentityAttempts < 1 || c.ReconnectGrace < 0 {
		return validationError("timing", "non-positive delay")
	}
	return nil
}
