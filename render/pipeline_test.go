package render

import (
	"testing"
	"time"

	"modestep/gesture"
	"modestep/midi"
	"modestep/sched"
)

type fixture struct {
	p     *Pipeline
	rec   *midi.Recorder
	clock *sched.Fake
	frame Frame
}

func newFixture() *fixture {
	f := &fixture{rec: midi.NewRecorder(), clock: sched.NewFake()}
	f.p = NewPipeline(f.rec, f.clock)
	f.p.SetSource(func() Frame { return f.frame })
	return f
}

func (f *fixture) texts() []string {
	var out []string
	for _, s := range f.rec.Sent() {
		if s.Kind == midi.SentText {
			out = append(out, s.Text)
		}
	}
	return out
}

func TestGatedSendsNothing(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.Refresh()
	f.p.Popup("Undo")
	if n := len(f.rec.Sent()); n != 0 {
		t.Fatalf("gated pipeline sent %d commands", n)
	}
	f.p.SetGated(false)
	if got := f.texts(); len(got) != 1 || got[0] != "Trns" {
		t.Errorf("texts %v", got)
	}
	if n := f.rec.Count(midi.SentLED); n != gesture.NumKeys {
		t.Errorf("first flush sent %d LEDs, want all %d", n, gesture.NumKeys)
	}
}

func TestOnlyDeltasSent(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.SetGated(false)
	f.rec.Reset()

	f.p.Refresh()
	if n := len(f.rec.Sent()); n != 0 {
		t.Fatalf("unchanged frame sent %d commands", n)
	}

	f.frame.LEDs[3] = midi.GreenOn()
	f.p.Refresh()
	sent := f.rec.Sent()
	if len(sent) != 1 || sent[0].Kind != midi.SentLED || sent[0].Key != 3 {
		t.Errorf("got %v", f.rec.Lines())
	}
}

func TestUnlitColorIgnored(t *testing.T) {
	f := newFixture()
	f.p.SetGated(false)
	f.rec.Reset()
	f.frame.LEDs[2] = midi.LED{Mode: midi.LEDOff, Color: midi.Red}
	f.p.Refresh()
	if n := len(f.rec.Sent()); n != 0 {
		t.Errorf("dark LED with new color resent: %v", f.rec.Lines())
	}
}

func TestInvalidateResendsEverything(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Util"
	f.p.SetGated(false)
	f.rec.Reset()

	f.p.Invalidate()
	f.p.Refresh()
	if got := f.texts(); len(got) != 1 || got[0] != "Util" {
		t.Errorf("texts %v", got)
	}
	if n := f.rec.Count(midi.SentLED); n != gesture.NumKeys {
		t.Errorf("resent %d LEDs", n)
	}
}

func TestPopupLifecycle(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.SetGated(false)
	f.rec.Reset()

	f.p.Popup("Undo")
	f.clock.Advance(PopupDuration("Undo") - Blink - time.Millisecond)
	f.clock.Advance(2 * time.Millisecond) // into the blank
	f.clock.Advance(Blink)

	want := []string{"Undo", "    ", "Trns"}
	got := f.texts()
	if len(got) != len(want) {
		t.Fatalf("texts %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("text[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if f.p.PopupText() != "" {
		t.Error("popup still active")
	}
}

func TestPopupScrollsClamped(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.SetGated(false)
	f.rec.Reset()

	f.p.Popup("Capture")
	f.clock.Advance(PopupDuration("Capture"))

	want := []string{"Capt", "aptu", "ptur", "ture", "    ", "Trns"}
	got := f.texts()
	if len(got) != len(want) {
		t.Fatalf("texts %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("text[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPopupCountsCharactersNotBytes(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.SetGated(false)
	f.rec.Reset()

	f.p.Popup("Fréq")
	f.clock.Advance(PopupDuration("Fréq"))

	want := []string{"Fr q", "    ", "Trns"}
	got := f.texts()
	if len(got) != len(want) {
		t.Fatalf("texts %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("text[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPopupSupersededByModeChange(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Trns"
	f.p.SetGated(false)
	f.p.Popup("Undo")
	f.frame.Text = "Util"
	f.p.ModeChanged()
	f.rec.Reset()

	f.clock.Advance(5 * time.Second)
	if n := len(f.rec.Sent()); n != 0 {
		t.Errorf("cancelled popup still wrote: %v", f.rec.Lines())
	}
}

func TestModeTextWraps(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Hello"
	f.p.SetGated(false)
	f.clock.Advance(6 * ScrollStep)

	want := []string{"Hell", "ello", "llo ", "lo H", "o He", " Hel", "Hell"}
	got := f.texts()
	if len(got) != len(want) {
		t.Fatalf("texts %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("text[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCurrentLeavesScrollAlone(t *testing.T) {
	f := newFixture()
	f.frame.Text = "Hello"
	if got := f.p.Current().Text; got != "Hell" {
		t.Errorf("gated current %q", got)
	}
	if n := f.clock.Pending(); n != 0 {
		t.Fatalf("current scheduled %d timers on a gated pipeline", n)
	}

	f.p.SetGated(false)
	f.clock.Advance(2 * ScrollStep)
	pending := f.clock.Pending()
	for range 3 {
		if got := f.p.Current().Text; got != "llo " {
			t.Fatalf("current %q, want %q", got, "llo ")
		}
	}
	if n := f.clock.Pending(); n != pending {
		t.Errorf("pending timers %d, want %d", n, pending)
	}
	f.clock.Advance(ScrollStep)
	if got := f.texts(); got[len(got)-1] != "lo H" {
		t.Errorf("texts %q", got)
	}
}

func TestHideTextLeavesDisplay(t *testing.T) {
	f := newFixture()
	f.frame.HideText = true
	f.p.SetGated(false)
	if n := len(f.texts()); n != 0 {
		t.Errorf("hidden text written %d times", n)
	}
}

func TestBlankIgnoresGate(t *testing.T) {
	f := newFixture()
	f.p.Blank()
	text, leds := f.rec.Display()
	if text != "    " {
		t.Errorf("text %q", text)
	}
	for k, l := range leds {
		if l.Lit() {
			t.Errorf("led %d lit", k)
		}
	}
}
