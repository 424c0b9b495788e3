package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/modes"
	"modestep/session"
	"modestep/theme"
	"modestep/widgets"
)

// holdSlack keeps a simulated long press down a little past the threshold.
const holdSlack = 100 * time.Millisecond

// pedalStep is how far [ and ] move the simulated pedal.
const pedalStep = 8

type Model struct {
	Session *session.Session
	Virtual *midi.Virtual // nil when real hardware is attached
	Theme   *theme.Theme

	// Reopen loads the project again; nil disables the binding.
	Reopen func() (host.Host, error)

	keys     KeyMap
	help     help.Model
	snap     session.Snapshot
	pedal    int
	status   string
	quitting bool
}

type UpdateMsg struct{}

type releaseMsg struct{ key gesture.Key }

func NewModel(s *session.Session, v *midi.Virtual, th *theme.Theme) Model {
	return Model{
		Session: s,
		Virtual: v,
		Theme:   th,
		keys:    DefaultKeyMap,
		help:    help.New(),
		snap:    s.Snapshot(),
	}
}

func ListenForUpdates(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Updates()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Session)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		m.snap = m.Session.Snapshot()
		return m, ListenForUpdates(m.Session)

	case releaseMsg:
		if m.Virtual != nil {
			m.Virtual.Up(msg.key)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Reopen):
		if m.Reopen == nil {
			break
		}
		h, err := m.Reopen()
		if err != nil {
			m.status = err.Error()
			break
		}
		m.status = ""
		m.Session.Submit(session.ProjectOpened{Host: h})

	case m.Virtual == nil:
		// hardware attached; nothing to simulate

	case key.Matches(msg, m.keys.Tap):
		if d, ok := digit(msg.String()); ok {
			m.Virtual.Down(gesture.Key(d))
			m.Virtual.Up(gesture.Key(d))
		}

	case key.Matches(msg, m.keys.Hold):
		if d, ok := digit(msg.String()); ok {
			return m, m.hold(gesture.Key(d))
		}

	case key.Matches(msg, m.keys.Exit):
		m.Virtual.Down(gesture.ExitKey)
		m.Virtual.Up(gesture.ExitKey)

	case key.Matches(msg, m.keys.ExitHold):
		return m, m.hold(gesture.ExitKey)

	case key.Matches(msg, m.keys.PedalUp):
		m.pedal = min(127, m.pedal+pedalStep)
		m.Virtual.Expression(m.pedal)

	case key.Matches(msg, m.keys.PedalDown):
		m.pedal = max(0, m.pedal-pedalStep)
		m.Virtual.Expression(m.pedal)

	case key.Matches(msg, m.keys.Nav):
		m.Virtual.Nav(arrows[msg.String()])
	}
	return m, nil
}

// hold presses k now and releases it once the long press has fired.
func (m Model) hold(k gesture.Key) tea.Cmd {
	m.Virtual.Down(k)
	return tea.Tick(m.snap.LongPress+holdSlack, func(time.Time) tea.Msg {
		return releaseMsg{key: k}
	})
}

// keyRows is the physical layout, top row first. The mode key sits at the
// right of the top row.
var keyRows = [2][]gesture.Key{
	{6, 7, 8, 9, gesture.ModeKey},
	{1, 2, 3, 4, 5},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.snap

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	device := snap.Device
	if device == "" {
		device = "no controller"
	}
	id := snap.ID
	if len(id) > 8 {
		id = id[:8]
	}
	header := headerStyle.Render(fmt.Sprintf("modestep  %s  %s  %s  %s", snap.Project, device, snap.State, id))

	display := widgets.RenderDisplay(snap.Text, m.Theme.Success(), m.Theme.Muted())
	modeLine := fmt.Sprintf("mode %s", snap.Mode)
	if snap.Previous != "" {
		modeLine += fmt.Sprintf("  previous %s", snap.Previous)
	}
	if snap.Standalone {
		modeLine += "  " + warnStyle.Render("standalone")
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, display, "  ", modeLine))
	out.WriteString("\n")
	out.WriteString(m.renderKeys(snap))
	out.WriteString("\n")
	out.WriteString(m.renderTracks(snap))

	if snap.Err != nil {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(snap.Err.Error()))
	}
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.status))
	}
	if m.Virtual == nil {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render("hardware attached; footswitch simulation off"))
	}
	out.WriteString("\n\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) renderKeys(snap session.Snapshot) string {
	held := make(map[gesture.Key]bool, len(snap.Held))
	for _, k := range snap.Held {
		held[k] = true
	}
	rows := make([]string, 0, len(keyRows))
	for _, row := range keyRows {
		views := make([]widgets.KeyView, 0, len(row))
		for _, k := range row {
			color, symbol := m.Theme.LED(snap.LEDs[k])
			label := fmt.Sprint(int(k))
			if k == gesture.ModeKey {
				label = "M"
			}
			views = append(views, widgets.KeyView{Label: label, Color: color, Symbol: symbol, Held: held[k]})
		}
		rows = append(rows, widgets.RenderKeyRow(views))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderTracks(snap session.Snapshot) string {
	if modes.IsHidden(snap.Mode) || len(snap.Tracks) == 0 {
		return ""
	}
	dim := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	lit := lipgloss.NewStyle().Foreground(m.Theme.FG())
	flag := func(on bool, s string) string {
		if on {
			return lit.Render(s)
		}
		return dim.Render("·")
	}

	var lines []string
	for i, t := range snap.Tracks {
		marker := " "
		if i == snap.Selected {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %-12s %s%s%s %3.0f%%",
			marker, t.Name, flag(t.Arm, "A"), flag(t.Mute, "M"), flag(t.Solo, "S"), t.Volume*100))
	}
	return strings.Join(lines, "\n")
}
