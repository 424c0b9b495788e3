package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"modestep/config"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/sched"
	"modestep/session"
	"modestep/theme"
)

type syncQueue struct{ *sched.Fake }

func (q syncQueue) Post(fn func()) { fn() }

func newModel() (Model, *midi.Virtual) {
	s := session.New(config.Default(), host.NewMemory("set", 4, 1), syncQueue{sched.NewFake()})
	v := midi.NewVirtual("virtual")
	return NewModel(s, v, theme.New(nil)), v
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func drain(v *midi.Virtual) []midi.Event {
	var evs []midi.Event
	for {
		select {
		case ev := <-v.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestDigit(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"7", 7, true},
		{")", 0, true},
		{"!", 1, true},
		{"(", 9, true},
		{"a", 0, false},
		{"10", 0, false},
	}
	for _, tt := range tests {
		got, ok := digit(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("digit(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTapInjectsDownUp(t *testing.T) {
	m, v := newModel()
	m.Update(runes("3"))
	evs := drain(v)
	if len(evs) != 2 || evs[0].Kind != midi.KeyDown || evs[1].Kind != midi.KeyUp || evs[0].Key != 3 {
		t.Errorf("got %v", evs)
	}
}

func TestArrowsPressNavPad(t *testing.T) {
	m, v := newModel()
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	evs := drain(v)
	if len(evs) != 2 || evs[0].Kind != midi.Nav || evs[0].Dir != gesture.Up || evs[1].Dir != gesture.Left {
		t.Errorf("got %v", evs)
	}
}

func TestHoldReleasesLater(t *testing.T) {
	m, v := newModel()
	_, cmd := m.Update(runes("@"))
	if cmd == nil {
		t.Fatal("hold should schedule a release")
	}
	evs := drain(v)
	if len(evs) != 1 || evs[0].Kind != midi.KeyDown || evs[0].Key != 2 {
		t.Fatalf("got %v", evs)
	}
	m.Update(releaseMsg{key: 2})
	if evs := drain(v); len(evs) != 1 || evs[0].Kind != midi.KeyUp {
		t.Errorf("got %v", evs)
	}
}

func TestExitAndPedal(t *testing.T) {
	m, v := newModel()
	m.Update(runes("x"))
	evs := drain(v)
	if len(evs) != 2 || evs[0].Key != gesture.ExitKey {
		t.Errorf("exit: got %v", evs)
	}

	next, _ := m.Update(runes("]"))
	next.(Model).Update(runes("]"))
	evs = drain(v)
	if len(evs) != 2 || evs[1].Kind != midi.Expression || evs[1].Value != 2*pedalStep {
		t.Errorf("pedal: got %v", evs)
	}
}

func TestNoSimulationWithHardware(t *testing.T) {
	m, v := newModel()
	m.Virtual = nil
	m.Update(runes("3"))
	if evs := drain(v); len(evs) != 0 {
		t.Errorf("got %v", evs)
	}
}

func TestViewAndQuit(t *testing.T) {
	m, _ := newModel()
	if out := m.View(); !strings.Contains(out, "modestep") || !strings.Contains(out, "set") {
		t.Errorf("view missing header:\n%s", out)
	}
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Error("quit returned no command")
	}
	if out := next.(Model).View(); out != "" {
		t.Errorf("view after quit: %q", out)
	}
}
