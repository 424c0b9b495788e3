package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func userWithOverrides(t *testing.T) Configuration {
	t.Helper()
	cfg, err := ParseUser([]byte(`
initial_mode: utility
key_safety_strategy: single_key
auto_arm: true
override_track_controls:
  2: [volume, mute, metronome]
  4: null
`))
	if err != nil {
		t.Fatalf("ParseUser: %v", err)
	}
	return cfg
}

func TestParseUser(t *testing.T) {
	cfg := userWithOverrides(t)
	if cfg.InitialMode != ModeUtility {
		t.Errorf("initial_mode = %q, want utility", cfg.InitialMode)
	}
	if cfg.FullPressure != 37 {
		t.Errorf("full_pressure = %d, want default 37", cfg.FullPressure)
	}
	o := cfg.OverrideTrackControls[2]
	if o == nil || o.Top != ControlVolume || o.Bottom != ControlMute || o.Action != ActionMetronome {
		t.Errorf("override 2 = %+v", o)
	}
	if o, ok := cfg.OverrideTrackControls[4]; !ok || o != nil {
		t.Errorf("override 4 = %v (present %v), want explicit null", o, ok)
	}
}

func TestParseUserRejectsUnknown(t *testing.T) {
	for _, src := range []string{
		"nonsense: 1\n",
		"initial_mode: not_a_mode\n",
		"key_safety_strategy: both_feet\n",
		"override_track_controls:\n  1: [volume, bogus, undo]\n",
	} {
		if _, err := ParseUser([]byte(src)); err == nil {
			t.Errorf("ParseUser(%q) succeeded, want error", src)
		}
	}
}

func TestLoadUserMissingFile(t *testing.T) {
	cfg, err := LoadUser(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialMode != ModeTransport {
		t.Errorf("got %q, want default", cfg.InitialMode)
	}
}

func TestResolveReplaceDiscardsUserLayer(t *testing.T) {
	user := userWithOverrides(t)
	cfg := Resolve(user, []string{`ms={"initial_mode": "device_parameters_pressure"}`})

	if cfg.InitialMode != ModeDeviceParametersPressure {
		t.Errorf("initial_mode = %q", cfg.InitialMode)
	}
	if cfg.KeySafetyStrategy != AllKeys {
		t.Errorf("key_safety_strategy = %q, want default all_keys", cfg.KeySafetyStrategy)
	}
	if cfg.AutoArm {
		t.Error("auto_arm survived a replace")
	}
	if len(cfg.OverrideTrackControls) != 0 {
		t.Errorf("override_track_controls survived a replace: %v", cfg.OverrideTrackControls)
	}
}

func TestResolveMergeRetainsUserLayer(t *testing.T) {
	user := userWithOverrides(t)
	cfg := Resolve(user, []string{`ms<{"initial_mode": "device_parameters_pressure"}`})

	if cfg.InitialMode != ModeDeviceParametersPressure {
		t.Errorf("initial_mode = %q", cfg.InitialMode)
	}
	if cfg.KeySafetyStrategy != SingleKey {
		t.Errorf("key_safety_strategy = %q, want user single_key", cfg.KeySafetyStrategy)
	}
	if !cfg.AutoArm {
		t.Error("auto_arm lost in merge")
	}
	if cfg.OverrideTrackControls[2] == nil {
		t.Error("override_track_controls lost in merge")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	user := userWithOverrides(t)
	meta := []string{"Intro", `ms<{"auto_arm": false}`, "Verse"}
	a := Resolve(user, meta)
	b := Resolve(Resolve(user, meta), meta)
	if a.AutoArm || b.AutoArm {
		t.Error("merge did not apply")
	}
	if a.InitialMode != b.InitialMode || a.KeySafetyStrategy != b.KeySafetyStrategy {
		t.Errorf("resolving twice changed the result: %+v vs %+v", a, b)
	}
}

func TestResolveInvalidFallsBack(t *testing.T) {
	user := userWithOverrides(t)
	for _, marker := range []string{
		`ms={"initial_mode": `,
		`ms<{"no_such_option": 1}`,
		`ms<{"initial_mode": "nowhere"}`,
		`ms=[1, 2]`,
	} {
		cfg := Resolve(user, []string{marker})
		if cfg.InitialMode != ModeUtility || cfg.KeySafetyStrategy != SingleKey {
			t.Errorf("%s: got %q/%q, want user layer", marker, cfg.InitialMode, cfg.KeySafetyStrategy)
		}
	}
}

func TestApplyReportsSentinel(t *testing.T) {
	_, err := Apply(Default(), ProjectOverride{Kind: Merge, Payload: "{"})
	if !errors.Is(err, ErrInvalidOverride) {
		t.Errorf("got %v, want ErrInvalidOverride", err)
	}
}

func TestResolveLaterMarkersWin(t *testing.T) {
	cfg := Resolve(Default(), []string{
		`ms<{"initial_mode": "utility", "auto_arm": true}`,
		`ms<{"initial_mode": "transport"}`,
	})
	if cfg.InitialMode != ModeTransport || !cfg.AutoArm {
		t.Errorf("got %q auto_arm=%v", cfg.InitialMode, cfg.AutoArm)
	}
}

func TestOverrideModesNullAlternate(t *testing.T) {
	cfg := Resolve(Default(), []string{`ms<{"override_modes": {"5": ["standalone_1", null], "6": null}}`})
	o := cfg.OverrideModes[5]
	if o == nil || o.Primary != StandaloneMode(1) || o.Alternate != "" {
		t.Errorf("override 5 = %+v", o)
	}
	if o, ok := cfg.OverrideModes[6]; !ok || o != nil {
		t.Errorf("override 6 = %v, want explicit null", o)
	}
}

func TestSafetyStrategyOverride(t *testing.T) {
	cfg := Resolve(Default(), []string{`ms<{"override_key_safety_strategies": {"track_controls_1": "adjacent_lockout"}}`})
	if got := cfg.SafetyStrategy(TrackControlsMode(1)); got != AdjacentLockout {
		t.Errorf("track_controls_1: got %q", got)
	}
	if got := cfg.SafetyStrategy(TrackControlsMode(2)); got != AllKeys {
		t.Errorf("track_controls_2: got %q", got)
	}
}

func TestNavElementOverride(t *testing.T) {
	cfg := Resolve(Default(), []string{`ms<{"override_elements": {"transport": [{"vertical": "session_ring_scenes"}, {"key": 4, "action": "undo"}]}}`})
	list := cfg.OverrideElements[ModeTransport]
	if len(list) != 2 || !list[0].Nav() || list[0].Vertical != NavSessionRingScenes || list[1].Nav() {
		t.Fatalf("override_elements = %+v", list)
	}

	for _, payload := range []string{
		`{"override_elements": {"transport": [{"horizontal": "sideways"}]}}`,
		`{"override_elements": {"transport": [{}]}}`,
		`{"override_elements": {"transport": [{"key": 4, "action": "undo", "vertical": "device_bank"}]}}`,
	} {
		if _, err := Apply(Default(), ProjectOverride{Kind: Merge, Payload: payload}); !errors.Is(err, ErrInvalidOverride) {
			t.Errorf("%s: got %v, want ErrInvalidOverride", payload, err)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")
	s := DefaultSettings()
	s.Controller.SysexHeader = "f0 00 1b 48"
	if err := s.saveTo(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	got, err := loadSettingsFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Controller.SysexHeader != s.Controller.SysexHeader || got.Controller.PortName != "SoftStep" {
		t.Errorf("got %+v", got.Controller)
	}
}

func TestPrintedConfigLoadsBack(t *testing.T) {
	cfg := Resolve(userWithOverrides(t), []string{`ms<{"override_modes": {"5": ["standalone_3"], "7": ["device_parameters_pressure", "transport"]}}`})
	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseUser(out)
	if err != nil {
		t.Fatalf("ParseUser(printed): %v\n%s", err, out)
	}
	if got.InitialMode != ModeUtility || got.KeySafetyStrategy != SingleKey {
		t.Errorf("got %q %q", got.InitialMode, got.KeySafetyStrategy)
	}
	if o := got.OverrideTrackControls[2]; o == nil || *o != *cfg.OverrideTrackControls[2] {
		t.Errorf("track controls 2 = %+v", o)
	}
	if o, ok := got.OverrideTrackControls[4]; !ok || o != nil {
		t.Errorf("track controls 4 = %v (present %v)", o, ok)
	}
	if o := got.OverrideModes[5]; o == nil || o.Primary != StandaloneMode(3) || o.Alternate != "" {
		t.Errorf("mode 5 = %+v", o)
	}
	if o := got.OverrideModes[7]; o == nil || o.Alternate != ModeTransport {
		t.Errorf("mode 7 = %+v", o)
	}
}
