// Package render turns the desired display state into the minimal set of
// controller commands.
package render

import (
	"time"
	"unicode/utf8"

	"modestep/debug"
	"modestep/gesture"
	"modestep/midi"
	"modestep/sched"
)

// Display timings
const (
	ScrollStep      = 200 * time.Millisecond
	ScrollPreDelay  = 200 * time.Millisecond
	ScrollPostDelay = 500 * time.Millisecond
	Blink           = 100 * time.Millisecond
)

// PopupDuration is how long a popup of the given text stays up.
func PopupDuration(text string) time.Duration {
	d := ScrollPreDelay + ScrollPostDelay + Blink
	if extra := runeLen(text) - midi.DisplayWidth; extra > 0 {
		d += time.Duration(extra) * ScrollStep
	}
	return d
}

// Frame is the desired controller state. HideText leaves the display alone.
type Frame struct {
	Text     string
	HideText bool
	LEDs     [gesture.NumKeys]midi.LED
}

type popupPhase int

const (
	popupNone popupPhase = iota
	popupPre
	popupScroll
	popupPost
	popupBlank
)

// Pipeline diffs frames against what was last sent. All methods run on the
// loop.
type Pipeline struct {
	out    midi.Output
	sched  sched.Scheduler
	source func() Frame
	gated  bool

	// for diffing
	prevText string
	textSent bool
	prevLEDs map[gesture.Key]midi.LED

	// scrolling mode text
	scrollText  string
	scrollPos   int
	scrollTimer *sched.Timer

	// popup overlay
	popup      string
	popupPos   int
	phase      popupPhase
	popupTimer *sched.Timer
}

// NewPipeline creates a gated pipeline. Nothing is sent until SetGated(false).
func NewPipeline(out midi.Output, s sched.Scheduler) *Pipeline {
	return &Pipeline{
		out:      out,
		sched:    s,
		gated:    true,
		prevLEDs: make(map[gesture.Key]midi.LED),
		source:   func() Frame { return Frame{HideText: true} },
	}
}

// SetSource sets the function producing the desired frame.
func (p *Pipeline) SetSource(fn func() Frame) {
	p.source = fn
}

// SetOutput swaps the controller, e.g. after a reconnect, and forgets what
// was sent to the old one.
func (p *Pipeline) SetOutput(out midi.Output) {
	p.out = out
	p.Invalidate()
}

// SetGated stops or resumes output. Resuming flushes the current frame.
func (p *Pipeline) SetGated(gated bool) {
	if p.gated == gated {
		return
	}
	p.gated = gated
	debug.Log("render", "gated=%v", gated)
	if gated {
		p.stopTimers()
		return
	}
	p.Refresh()
}

// Gated reports whether output is suppressed.
func (p *Pipeline) Gated() bool {
	return p.gated
}

// Invalidate forgets the last-sent state so the next refresh resends
// everything.
func (p *Pipeline) Invalidate() {
	p.textSent = false
	p.prevText = ""
	p.prevLEDs = make(map[gesture.Key]midi.LED)
}

// Blank sends an empty display and dark LEDs regardless of the gate, and
// records them as sent.
func (p *Pipeline) Blank() {
	if p.out == nil {
		return
	}
	p.Invalidate()
	p.send(Frame{}, "")
}

// Popup shows text over the current mode text until it times out, another
// popup replaces it, or the mode changes.
func (p *Pipeline) Popup(text string) {
	if p.gated || text == "" {
		return
	}
	p.popupTimer.Stop()
	p.popup = text
	p.popupPos = 0
	p.phase = popupPre
	p.popupTimer = p.sched.After(ScrollPreDelay, p.advancePopup)
	p.Refresh()
}

// ModeChanged drops any popup and restarts mode text scrolling.
func (p *Pipeline) ModeChanged() {
	p.clearPopup()
	p.scrollTimer.Stop()
	p.scrollText = ""
	p.Refresh()
}

// PopupText returns the active popup, if any.
func (p *Pipeline) PopupText() string {
	if p.phase == popupNone {
		return ""
	}
	return p.popup
}

// Refresh computes the desired frame and sends what changed.
func (p *Pipeline) Refresh() {
	if p.gated || p.out == nil {
		return
	}
	frame := p.source()
	p.scheduleScroll(frame)
	p.send(frame, p.textFor(frame))
}

// Current returns the frame as it would be shown now, popup included. It
// leaves scrolling state alone.
func (p *Pipeline) Current() Frame {
	frame := p.source()
	if !frame.HideText || p.phase != popupNone {
		frame.Text = p.textFor(frame)
		frame.HideText = false
	}
	return frame
}

func (p *Pipeline) send(frame Frame, text string) {
	if !frame.HideText || p.phase != popupNone {
		text = midi.PadText(text)
		if !p.textSent || text != p.prevText {
			if err := p.out.SetDisplayText(text); err != nil {
				debug.Warn("render", "display: %v", err)
			}
			p.prevText = text
			p.textSent = true
		}
	}

	// Only send if changed
	var changed int
	for k := gesture.Key(0); k < gesture.NumKeys; k++ {
		led := frame.LEDs[k].Normalize()
		if prev, ok := p.prevLEDs[k]; ok && prev == led {
			continue
		}
		if err := p.out.SetLED(k, led); err != nil {
			debug.Warn("render", "led %v: %v", k, err)
		}
		p.prevLEDs[k] = led
		changed++
	}
	if changed > 0 {
		debug.Log("render", "flush: leds=%d text=%q", changed, p.prevText)
	}
}

// scheduleScroll starts or stops mode text scrolling for frame. A popup
// pauses the scroll without resetting it.
func (p *Pipeline) scheduleScroll(frame Frame) {
	if p.phase != popupNone {
		return
	}
	if frame.HideText || runeLen(frame.Text) <= midi.DisplayWidth {
		p.scrollTimer.Stop()
		p.scrollText = ""
		return
	}
	if frame.Text != p.scrollText {
		p.scrollText = frame.Text
		p.scrollPos = 0
		p.scrollTimer.Stop()
	}
	if !p.scrollTimer.Active() {
		p.scrollTimer = p.sched.After(ScrollStep, p.advanceScroll)
	}
}

// textFor is the display text for frame given the popup and scroll state.
func (p *Pipeline) textFor(frame Frame) string {
	switch p.phase {
	case popupBlank:
		return ""
	case popupPre, popupScroll, popupPost:
		return window(p.popup, p.popupPos)
	}
	if frame.HideText {
		return ""
	}
	if runeLen(frame.Text) <= midi.DisplayWidth {
		return frame.Text
	}
	pos := 0
	if frame.Text == p.scrollText {
		pos = p.scrollPos
	}
	return window(frame.Text+" "+frame.Text, pos)
}

// advanceScroll steps wrapping mode text.
func (p *Pipeline) advanceScroll() {
	if p.scrollText == "" {
		return
	}
	p.scrollPos = (p.scrollPos + 1) % (runeLen(p.scrollText) + 1)
	p.Refresh()
}

// advancePopup walks the popup through pre-delay, clamped scroll, hold and
// a final blank.
func (p *Pipeline) advancePopup() {
	switch p.phase {
	case popupPre, popupScroll:
		if p.popupPos+midi.DisplayWidth < runeLen(p.popup) {
			p.phase = popupScroll
			p.popupPos++
			p.popupTimer = p.sched.After(ScrollStep, p.advancePopup)
			break
		}
		p.phase = popupPost
		p.popupTimer = p.sched.After(ScrollPostDelay, p.advancePopup)
	case popupPost:
		p.phase = popupBlank
		p.popupTimer = p.sched.After(Blink, p.advancePopup)
	case popupBlank:
		p.clearPopup()
	}
	p.Refresh()
}

func (p *Pipeline) clearPopup() {
	p.popupTimer.Stop()
	p.popup = ""
	p.popupPos = 0
	p.phase = popupNone
}

func (p *Pipeline) stopTimers() {
	p.clearPopup()
	p.scrollTimer.Stop()
	p.scrollText = ""
}

func window(s string, pos int) string {
	r := []rune(s)
	if pos >= len(r) {
		return ""
	}
	end := min(pos+midi.DisplayWidth, len(r))
	return string(r[pos:end])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
