package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"modestep/gesture"
)

// KeyMap holds the monitor's bindings. Footswitch taps only work against
// the virtual controller.
type KeyMap struct {
	Tap       key.Binding
	Hold      key.Binding
	Exit      key.Binding
	ExitHold  key.Binding
	PedalUp   key.Binding
	PedalDown key.Binding
	Nav       key.Binding
	Reopen    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// holdKeys are shift+digit on a US layout, in digit order 0-9.
var holdKeys = []string{")", "!", "@", "#", "$", "%", "^", "&", "*", "("}

// DefaultKeyMap provides the default keybindings
var DefaultKeyMap = KeyMap{
	Tap: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("0-9", "tap key"),
	),
	Hold: key.NewBinding(
		key.WithKeys(holdKeys...),
		key.WithHelp("S-0-9", "long press"),
	),
	Exit: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "exit standalone"),
	),
	ExitHold: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "long exit"),
	),
	PedalUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "pedal up"),
	),
	PedalDown: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "pedal down"),
	),
	Nav: key.NewBinding(
		key.WithKeys("left", "right", "up", "down"),
		key.WithHelp("←→↑↓", "nav pad"),
	),
	Reopen: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reopen project"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tap, k.Hold, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tap, k.Hold, k.Exit, k.ExitHold},
		{k.PedalUp, k.PedalDown, k.Nav},
		{k.Reopen, k.Help, k.Quit},
	}
}

var arrows = map[string]gesture.Direction{
	"left":  gesture.Left,
	"right": gesture.Right,
	"up":    gesture.Up,
	"down":  gesture.Down,
}

// digit returns the footswitch a tap or hold key stands for.
func digit(s string) (int, bool) {
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return int(s[0] - '0'), true
	}
	for i, h := range holdKeys {
		if s == h {
			return i, true
		}
	}
	return 0, false
}
