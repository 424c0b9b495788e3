package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyView is one footswitch as drawn in the monitor
type KeyView struct {
	Label  string
	Color  [3]uint8
	Symbol rune
	Held   bool
}

// RenderKey renders a key as a bordered cell: label on top, LED below.
// Held keys get a thick border.
func RenderKey(k KeyView) string {
	color := lipgloss.Color(rgbToHex(k.Color))
	border := lipgloss.RoundedBorder()
	if k.Held {
		border = lipgloss.ThickBorder()
	}
	style := lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(5).
		Align(lipgloss.Center)
	led := lipgloss.NewStyle().Foreground(color).Render(string(k.Symbol))
	return style.Render(k.Label + "\n" + led)
}

// RenderKeyRow renders keys side by side
func RenderKeyRow(keys []KeyView) string {
	cells := make([]string, len(keys))
	for i, k := range keys {
		cells[i] = RenderKey(k)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// RenderDisplay renders the four-character display
func RenderDisplay(text string, fg, border lipgloss.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Foreground(fg).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf("%-4s", text))
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, symbol rune, name, desc string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return fmt.Sprintf("  %s %s - %s", style.Render(string(symbol)), name, desc)
}

// RenderLegend joins legend items one per line
func RenderLegend(items []string) string {
	return strings.Join(items, "\n")
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
