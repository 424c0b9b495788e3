package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"modestep/midi"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols drawn under each key for its LED mode
type Symbols struct {
	Off       rune // □
	On        rune // ■
	Blink     rune // ▣
	FastBlink rune // ◈
	Flash     rune // ◇
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Off:       '□',
			On:        '■',
			Blink:     '▣',
			FastBlink: '◈',
			Flash:     '◇',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// LED colors are fixed; they name what the controller shows, not a mood.
var ledColors = map[midi.Color]RGB{
	midi.Green:  {0x3c, 0xe0, 0x5a},
	midi.Red:    {0xf0, 0x3c, 0x3c},
	midi.Yellow: {0xf5, 0xd0, 0x2a},
}

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// LED returns the color and symbol for a key light. Unlit keys use the
// muted role.
func (t *Theme) LED(l midi.LED) (RGB, rune) {
	if !l.Lit() {
		return t.Palette.Lookup(RoleMuted), t.Symbols.Off
	}
	c := ledColors[l.Color]
	switch l.Mode {
	case midi.LEDBlink:
		return c, t.Symbols.Blink
	case midi.LEDFastBlink:
		return c, t.Symbols.FastBlink
	case midi.LEDFlash:
		return c, t.Symbols.Flash
	}
	return c, t.Symbols.On
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(Hex(c))
}

// Hex formats c as #rrggbb.
func Hex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
