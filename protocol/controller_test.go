package protocol

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"modestep/config"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/modes"
	"modestep/render"
	"modestep/sched"
)

var identity = midi.Event{Kind: midi.IdentityReply, Data: []byte{0x7E, 0x00, 0x06, 0x02, 0x00, 0x01, 0x5F}}

type fixture struct {
	cfg      config.Configuration
	clock    *sched.Fake
	host     *host.Memory
	rec      *midi.Recorder
	pipeline *render.Pipeline
	nav      *modes.Navigator
	ctl      *Controller
}

func newFixture(mutate func(*config.Configuration)) *fixture {
	f := &fixture{cfg: config.Default(), clock: sched.NewFake(), rec: midi.NewRecorder()}
	bg, on := 100, true
	f.cfg.BackgroundProgram = &bg
	f.cfg.Backlight = &on
	if mutate != nil {
		mutate(&f.cfg)
	}
	f.host = host.NewMemory("set", 8, 2)
	f.nav = modes.New(&f.cfg, f.host, f.clock)
	f.pipeline = render.NewPipeline(nil, f.clock)
	f.pipeline.SetSource(f.nav.Frame)
	f.nav.SetDisplay(f.pipeline)
	f.ctl = New(&f.cfg, f.clock, f.pipeline, f.nav)
	f.nav.SetHardware(f.ctl)
	return f
}

func (f *fixture) connect(out midi.Output) {
	f.ctl.Connect(out)
	f.ctl.HandleEvent(identity)
	f.clock.Flush()
}

// commands drops LED writes, which are covered by the render tests.
func commands(rec *midi.Recorder) []string {
	var out []string
	for _, line := range rec.Lines() {
		if !strings.HasPrefix(line, "led ") {
			out = append(out, line)
		}
	}
	return out
}

func TestHandshakeOrdering(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)

	want := []string{
		"identity?",
		`text "    "`,
		"pc 100 bg",
		"standalone on",
		"standalone off",
		"backlight true",
		`text "Trns"`,
	}
	if got := commands(f.rec); !slices.Equal(got, want) {
		t.Fatalf("commands\n got %q\nwant %q", got, want)
	}
	if f.ctl.State() != Initialized {
		t.Errorf("state %v", f.ctl.State())
	}
	if f.nav.Mode() != config.ModeTransport {
		t.Errorf("mode %v", f.nav.Mode())
	}
	if n := f.rec.Count(midi.SentLED); n != 2*gesture.NumKeys {
		t.Errorf("got %d LED writes, want blank plus full frame", n)
	}
}

func TestIdentityRetriesWithBackoff(t *testing.T) {
	f := newFixture(nil)
	var failed error
	f.ctl.OnState(func(s State, err error) {
		if err != nil {
			failed = err
		}
	})
	f.ctl.Connect(f.rec)

	f.clock.Advance(500 * time.Millisecond)
	if n := f.rec.Count(midi.SentIdentityQuery); n != 2 {
		t.Fatalf("after first timeout: %d queries", n)
	}
	f.clock.Advance(999 * time.Millisecond)
	if n := f.rec.Count(midi.SentIdentityQuery); n != 2 {
		t.Fatalf("backoff not doubled: %d queries", n)
	}
	f.clock.Advance(time.Millisecond)
	if n := f.rec.Count(midi.SentIdentityQuery); n != 3 {
		t.Fatalf("after second timeout: %d queries", n)
	}
	f.clock.Advance(2 * time.Second)

	if f.ctl.State() != Disconnected || failed != ErrNoIdentity {
		t.Errorf("state %v err %v", f.ctl.State(), failed)
	}
	if f.nav.Mode() != modes.Disabled {
		t.Errorf("mode %v", f.nav.Mode())
	}
	if n := f.rec.Count(midi.SentIdentityQuery); n != f.cfg.IdentityAttempts {
		t.Errorf("%d queries, want %d", n, f.cfg.IdentityAttempts)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("%d timers left", f.clock.Pending())
	}
}

func TestGesturesIgnoredUntilInitialized(t *testing.T) {
	f := newFixture(nil)
	down := midi.Event{Kind: midi.KeyDown, Key: 3}
	if f.ctl.HandleEvent(down) {
		t.Error("key event passed while disconnected")
	}
	f.ctl.Connect(f.rec)
	if f.ctl.HandleEvent(down) {
		t.Error("key event passed while handshaking")
	}
	f.ctl.HandleEvent(identity)
	if f.ctl.HandleEvent(down) {
		t.Error("key event passed before the handshake finished")
	}
	f.clock.Flush()
	if !f.ctl.HandleEvent(down) {
		t.Error("key event dropped after handshake")
	}
}

func TestReconnectAfterShortGap(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)
	f.host.SetParameter(2, 0.7)
	f.host.ToggleLock()
	f.nav.Enter(config.ModeDeviceParametersPressure)
	f.clock.Flush()
	_, before := f.rec.Display()

	f.ctl.Disconnect()
	f.clock.Advance(100 * time.Millisecond)

	rec := midi.NewRecorder()
	f.connect(rec)
	if f.nav.Mode() != config.ModeDeviceParametersPressure {
		t.Fatalf("mode %v", f.nav.Mode())
	}
	if _, after := rec.Display(); after != before {
		t.Errorf("LEDs after reconnect %v, want %v", after, before)
	}
	if h := f.nav.History(); h.Current != config.ModeDeviceParametersPressure || h.Previous != config.ModeTransport {
		t.Errorf("history %+v", h)
	}
	if text, _ := rec.Display(); text != "Prss" {
		t.Errorf("display %q", text)
	}
	if !f.ctl.InGrace() {
		t.Error("reconnect should open the grace window")
	}
	if f.ctl.HandleEvent(midi.Event{Kind: midi.Unrecognized, Value: 112}) {
		t.Error("echo passed to gestures")
	}
	f.clock.Advance(f.cfg.ReconnectGrace.Duration())
	if f.ctl.InGrace() {
		t.Error("grace window still open")
	}
}

func TestReconnectAfterLongGap(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)
	f.host.Perform(config.ActionMetronome)
	f.pipeline.Refresh()
	f.pipeline.Popup("Capture")
	_, before := f.rec.Display()

	f.ctl.Disconnect()
	f.rec.Reset()
	f.clock.Advance(4 * time.Second)
	if n := len(f.rec.Sent()); n != 0 {
		t.Fatalf("%d stray writes while disconnected: %v", n, f.rec.Lines())
	}
	if f.clock.Pending() != 0 {
		t.Errorf("%d timers left after disconnect", f.clock.Pending())
	}

	rec := midi.NewRecorder()
	f.connect(rec)
	if f.ctl.State() != Initialized || f.nav.Mode() != config.ModeTransport {
		t.Errorf("state %v mode %v", f.ctl.State(), f.nav.Mode())
	}
	text, after := rec.Display()
	if text != "Trns" {
		t.Errorf("display %q", text)
	}
	if after != before {
		t.Errorf("LEDs after reconnect %v, want %v", after, before)
	}
}

func TestFirstConnectHasNoGraceWindow(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)
	if f.ctl.InGrace() {
		t.Error("grace window on first connect")
	}
}

func TestStandaloneEntryOrdering(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)

	for n := 1; n <= config.NumStandaloneModes; n++ {
		f.rec.Reset()
		f.nav.Enter(config.StandaloneMode(n))
		want := []string{"pc 100 bg", "standalone on", fmt.Sprintf("pc %d", n-1)}
		if got := commands(f.rec); !slices.Equal(got, want) {
			t.Fatalf("standalone_%d entry: got %q, want %q", n, got, want)
		}
		if !f.pipeline.Gated() {
			t.Fatalf("standalone_%d: render output not gated", n)
		}

		f.rec.Reset()
		f.nav.Handle(gesture.Gesture{Key: gesture.ExitKey, Kind: gesture.Press})
		if got := commands(f.rec); !slices.Equal(got, []string{"pc 100 bg"}) {
			t.Fatalf("standalone_%d exit: got %q", n, got)
		}
		f.clock.Flush()
		got := commands(f.rec)
		if len(got) < 3 || got[1] != "standalone off" || !strings.HasPrefix(got[2], "text ") {
			t.Fatalf("standalone_%d exit: got %q", n, got)
		}
		if f.nav.Mode() != config.ModeSelect {
			t.Fatalf("standalone_%d exit: mode %v", n, f.nav.Mode())
		}
		if f.rec.Count(midi.SentIdentityQuery) != 0 {
			t.Fatalf("standalone_%d exit re-ran the handshake", n)
		}
	}
}

func TestStandaloneSwitchSendsSingleProgramChange(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)
	f.nav.Enter(config.StandaloneMode(3))
	f.nav.Enter(config.StandaloneMode(4))

	f.rec.Reset()
	f.nav.Handle(gesture.Gesture{Key: gesture.ExitKey, Kind: gesture.LongPress})
	f.nav.Handle(gesture.Gesture{Key: gesture.ExitKey, Kind: gesture.Release})
	f.clock.Flush()
	if got := commands(f.rec); !slices.Equal(got, []string{"pc 2"}) {
		t.Errorf("got %q", got)
	}
	if f.nav.Mode() != config.StandaloneMode(3) {
		t.Errorf("mode %v", f.nav.Mode())
	}
}

func TestGoodbye(t *testing.T) {
	f := newFixture(func(c *config.Configuration) {
		p, off := 5, false
		c.DisconnectProgram = &p
		c.DisconnectBacklight = &off
	})
	f.connect(f.rec)
	f.rec.Reset()
	f.ctl.Goodbye()
	want := []string{"standalone on", "pc 5", "backlight false"}
	if got := commands(f.rec); !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if f.ctl.State() != Disconnected {
		t.Errorf("state %v", f.ctl.State())
	}
}

func TestLateIdentityReplyIgnored(t *testing.T) {
	f := newFixture(nil)
	f.connect(f.rec)
	f.rec.Reset()
	f.ctl.HandleEvent(identity)
	f.clock.Flush()
	if n := len(f.rec.Sent()); n != 0 {
		t.Errorf("late reply caused writes: %v", f.rec.Lines())
	}
}
