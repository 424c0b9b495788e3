package midi

import (
	"fmt"
	"strings"
	"sync"

	"modestep/gesture"
)

// SentKind is the type of a recorded command.
type SentKind int

const (
	SentIdentityQuery SentKind = iota
	SentText
	SentLED
	SentProgram
	SentStandaloneOn
	SentStandaloneOff
	SentBacklight
)

// Sent is one recorded command.
type Sent struct {
	Kind    SentKind
	Key     gesture.Key
	LED     LED
	Text    string
	Program StandaloneProgram
	On      bool
}

func (s Sent) String() string {
	switch s.Kind {
	case SentIdentityQuery:
		return "identity?"
	case SentText:
		return fmt.Sprintf("text %q", s.Text)
	case SentLED:
		return fmt.Sprintf("led %v %v", s.Key, s.LED)
	case SentProgram:
		if s.Program.Background {
			return fmt.Sprintf("pc %d bg", s.Program.Program)
		}
		return fmt.Sprintf("pc %d", s.Program.Program)
	case SentStandaloneOn:
		return "standalone on"
	case SentStandaloneOff:
		return "standalone off"
	case SentBacklight:
		return fmt.Sprintf("backlight %v", s.On)
	}
	return "?"
}

// Recorder is an Output that keeps every command. It also tracks what the
// hardware would currently show.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent

	text string
	leds [gesture.NumKeys]LED
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(s Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
	switch s.Kind {
	case SentText:
		r.text = PadText(s.Text)
	case SentLED:
		if s.Key.Valid() {
			r.leds[s.Key] = s.LED.Normalize()
		}
	}
	return nil
}

func (r *Recorder) IdentityQuery() error { return r.add(Sent{Kind: SentIdentityQuery}) }
func (r *Recorder) SetDisplayText(text string) error {
	return r.add(Sent{Kind: SentText, Text: text})
}
func (r *Recorder) SetLED(key gesture.Key, led LED) error {
	return r.add(Sent{Kind: SentLED, Key: key, LED: led})
}
func (r *Recorder) SendProgram(p StandaloneProgram) error {
	return r.add(Sent{Kind: SentProgram, Program: p})
}
func (r *Recorder) EnterStandalone() error { return r.add(Sent{Kind: SentStandaloneOn}) }
func (r *Recorder) ExitStandalone() error  { return r.add(Sent{Kind: SentStandaloneOff}) }
func (r *Recorder) SetBacklight(on bool) error {
	return r.add(Sent{Kind: SentBacklight, On: on})
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Lines renders the recording one command per entry, for test diffs.
func (r *Recorder) Lines() []string {
	var lines []string
	for _, s := range r.Sent() {
		lines = append(lines, s.String())
	}
	return lines
}

// Reset clears the recording but keeps the display state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// Display returns the text and LEDs the hardware would be showing.
func (r *Recorder) Display() (string, [gesture.NumKeys]LED) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text, r.leds
}

// Count returns how many recorded commands have the given kind.
func (r *Recorder) Count(kind SentKind) int {
	n := 0
	for _, s := range r.Sent() {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) String() string {
	return strings.Join(r.Lines(), "\n")
}
