package modes

import (
	"fmt"

	"modestep/config"
	"modestep/debug"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/render"
	"modestep/sched"
	"modestep/trackcontrols"
)

// Display is the part of the render pipeline the navigator drives.
type Display interface {
	Popup(text string)
	ModeChanged()
	Refresh()
}

// Hardware switches the controller between hosted and standalone operation.
// ExitStandalone returns to hosted mode and calls then once the controller
// is back, which may be on a later loop turn.
type Hardware interface {
	EnterStandalone(program int)
	SwitchProgram(program int)
	ExitStandalone(then func())
}

type nopDisplay struct{}

func (nopDisplay) Popup(string) {}
func (nopDisplay) ModeChanged() {}
func (nopDisplay) Refresh()     {}

type nopHardware struct{}

func (nopHardware) EnterStandalone(int)      {}
func (nopHardware) SwitchProgram(int)        {}
func (nopHardware) ExitStandalone(fn func()) { fn() }

const noKey gesture.Key = -1

// Navigator is the mode state machine. All methods run on the loop.
type Navigator struct {
	cfg     *config.Configuration
	host    host.Host
	sched   sched.Scheduler
	engine  *trackcontrols.Engine
	editor  *trackcontrols.Editor
	display Display
	hw      Hardware

	selectMap map[gesture.Key]Entry
	mode      Mode
	history   History
	stored    Mode
	handler   handler
	overrides map[gesture.Key]config.Action
	guard     *trackcontrols.Guard
	navPad    NavTargets

	// long presses waiting for release before switching into standalone
	modeKeyDelayed bool
	delayed        gesture.Key

	exitLong bool
	exiting  bool

	exprParam int
	exprLast  int
	exprSeen  bool
}

// New creates a navigator in the _disabled mode.
func New(cfg *config.Configuration, h host.Host, s sched.Scheduler) *Navigator {
	engine := trackcontrols.NewEngine(cfg)
	n := &Navigator{
		cfg:       cfg,
		host:      h,
		sched:     s,
		engine:    engine,
		editor:    trackcontrols.NewEditor(engine, s, cfg.DeleteDelay.Duration()),
		display:   nopDisplay{},
		hw:        nopHardware{},
		selectMap: ModeSelectMap(cfg),
		mode:      Disabled,
		history:   NewHistory(cfg.InitialLastMode),
		handler:   baseHandler{},
		guard:     trackcontrols.NewGuard(cfg.KeySafetyStrategy),
		delayed:   noKey,
		exprParam: -1,
	}
	if cfg.InitialExpressionParameter != nil {
		n.exprParam = *cfg.InitialExpressionParameter
	}
	return n
}

// SetDisplay connects the render pipeline.
func (n *Navigator) SetDisplay(d Display) {
	n.display = d
}

// SetHardware connects the protocol controller.
func (n *Navigator) SetHardware(hw Hardware) {
	n.hw = hw
}

// Mode is the active mode, mode select included.
func (n *Navigator) Mode() Mode {
	return n.mode
}

// History returns the quick-switch history.
func (n *Navigator) History() History {
	return n.history
}

// Engine returns the track controls slots.
func (n *Navigator) Engine() *trackcontrols.Engine {
	return n.engine
}

// Editor returns the track controls edit flow.
func (n *Navigator) Editor() *trackcontrols.Editor {
	return n.editor
}

// ExpressionParameter is the device parameter the pedal controls, or -1.
func (n *Navigator) ExpressionParameter() int {
	return n.exprParam
}

// Enter switches to m. Entering the active mode does nothing.
func (n *Navigator) Enter(m Mode) {
	if m == n.mode {
		return
	}
	from := n.mode
	n.handler.exit()
	if IsEdit(from) && n.editor.Active() {
		n.editor.Cancel()
	}
	n.modeKeyDelayed = false
	n.delayed = noKey
	n.exitLong = false

	n.mode = m
	n.history.Enter(m)
	switch {
	case IsStandalone(m) && IsStandalone(from):
		n.hw.SwitchProgram(Program(m))
	case IsStandalone(m):
		n.hw.EnterStandalone(Program(m))
	case IsEdit(m):
		n.editor.Begin(m.Index())
	}

	n.overrides = ElementOverrides(n.cfg, m)
	n.guard.SetStrategy(n.cfg.SafetyStrategy(m))
	n.navPad = NavTargetsFor(n.cfg, m)
	n.handler = n.newHandler(m)
	n.handler.enter()
	debug.Log("mode", "%s -> %s (current=%s previous=%s)", from, m, n.history.Current, n.history.Previous)
	n.display.ModeChanged()
}

// Disable remembers the active mode and parks the navigator in _disabled.
func (n *Navigator) Disable() {
	if n.mode != Disabled && n.mode != StandaloneInit {
		n.stored = n.mode
	}
	n.exiting = false
	n.guard.Reset()
	n.Enter(Disabled)
}

// Restore re-enters the mode saved by Disable, or the initial mode when
// nothing was saved.
func (n *Navigator) Restore() {
	m := n.stored
	if m == "" {
		m = n.cfg.InitialMode
	}
	n.stored = ""
	n.Enter(m)
}

// Handle dispatches a gesture to the active mode. Grid keys pass through the
// key safety guard on the way down and leave it after the mode has seen the
// release.
func (n *Navigator) Handle(g gesture.Gesture) {
	grid := g.Key != gesture.ModeKey && g.Key.Valid()
	if grid && g.Kind == gesture.Release {
		defer n.guard.Release(g.Key)
	}
	switch {
	case IsHidden(n.mode):
		return
	case IsStandalone(n.mode):
		n.handleExit(g)
		return
	case g.Key == gesture.ExitKey:
		return
	}
	if grid && g.Kind == gesture.HoldStart {
		n.guard.Acquire(g.Key)
	}

	switch {
	case IsEdit(n.mode):
		n.handleEdit(g)
	case g.Key == gesture.ModeKey:
		n.handleModeKey(g)
	case n.mode == config.ModeSelect:
		n.handleSelect(g)
	default:
		if a, ok := n.overrides[g.Key]; ok {
			if g.Kind == gesture.Press {
				n.perform(a)
			}
			break
		}
		n.handler.gesture(g)
	}
	n.display.Refresh()
}

// selectable reports whether k may change a selection under the active
// mode's key safety strategy.
func (n *Navigator) selectable(k gesture.Key) bool {
	return n.guard.Holds(k)
}

// Pressure forwards a pressure reading to the active mode.
func (n *Navigator) Pressure(p gesture.Pressure) {
	if IsHidden(n.mode) || IsStandalone(n.mode) {
		return
	}
	if _, ok := n.overrides[p.Key]; ok {
		return
	}
	n.handler.pressure(p)
}

// NavTargets returns the active nav pad assignment.
func (n *Navigator) NavTargets() NavTargets {
	return n.navPad
}

// Navigate moves whatever the nav pad axis of d is bound to in the active
// mode. Left and down step backwards.
func (n *Navigator) Navigate(d gesture.Direction) {
	target := n.navPad.Horizontal
	if d.Vertical() {
		target = n.navPad.Vertical
	}
	if target == "" || IsHidden(n.mode) || IsStandalone(n.mode) {
		return
	}
	delta := d.Step()
	hst := n.host
	switch target {
	case config.NavSelectedTrack:
		hst.StepTrack(delta)
	case config.NavSelectedScene:
		hst.StepScene(delta)
	case config.NavSelectedDevice:
		hst.StepDevice(delta)
	case config.NavDeviceBank:
		if b := hst.Bank() + delta; b >= 0 && b < hst.Banks() {
			hst.SelectBank(b)
			n.display.Popup(fmt.Sprintf("BnK%d", b+1))
		}
	case config.NavSessionRingTracks:
		hst.Scroll(delta, 0)
	case config.NavSessionRingScenes:
		hst.Scroll(0, delta)
	}
	debug.Log("mode", "nav %s -> %s %+d", d, target, delta)
	n.display.Refresh()
}

// Expression maps a pedal reading onto the selected device parameter.
// Readings within the movement threshold of the last one are ignored.
func (n *Navigator) Expression(v int) {
	if IsHidden(n.mode) || IsStandalone(n.mode) || n.exprParam < 0 {
		return
	}
	if n.exprSeen && abs(v-n.exprLast) < n.cfg.ExpressionPedalMovementThreshold {
		return
	}
	n.exprLast, n.exprSeen = v, true
	lo, hi := n.cfg.ExpressionPedalRange[0], n.cfg.ExpressionPedalRange[1]
	if hi <= lo {
		return
	}
	n.host.SetParameter(n.exprParam, clamp(float64(v-lo)/float64(hi-lo)))
}

func (n *Navigator) handleModeKey(g gesture.Gesture) {
	switch g.Kind {
	case gesture.Press:
		if IsTransient(n.mode) {
			n.selectOrModeSelect(n.history.Current)
		} else {
			n.Enter(config.ModeSelect)
		}
	case gesture.LongPress:
		if IsStandalone(n.history.Previous) {
			n.modeKeyDelayed = true
			return
		}
		n.selectPrevious()
	case gesture.Release:
		if n.modeKeyDelayed {
			n.modeKeyDelayed = false
			n.selectPrevious()
		}
	}
}

func (n *Navigator) handleSelect(g gesture.Gesture) {
	e, ok := n.selectMap[g.Key]
	if !ok {
		return
	}
	switch g.Kind {
	case gesture.Press:
		if IsTrackControls(e.Primary) && !n.engine.Enabled(e.Primary.Index()) {
			return
		}
		n.Enter(e.Primary)
	case gesture.LongPress:
		switch {
		case e.Alternate == "":
		case IsStandalone(e.Alternate):
			n.delayed = g.Key
		default:
			n.Enter(e.Alternate)
		}
	case gesture.Release:
		if n.delayed == g.Key {
			n.delayed = noKey
			n.Enter(e.Alternate)
		}
	}
}

// handleExit is the only gesture handling while standalone. A short press
// returns to mode select; a long press returns to the previous mode, switching
// programs directly when that is standalone too.
func (n *Navigator) handleExit(g gesture.Gesture) {
	if g.Key != gesture.ExitKey || n.exiting {
		return
	}
	switch g.Kind {
	case gesture.Press:
		n.exitStandalone(func() { n.Enter(config.ModeSelect) })
	case gesture.LongPress:
		n.exitLong = true
	case gesture.Release:
		if !n.exitLong {
			return
		}
		n.exitLong = false
		if IsStandalone(n.history.Previous) {
			n.Enter(n.history.Previous)
			return
		}
		n.exitStandalone(n.selectPrevious)
	}
}

func (n *Navigator) exitStandalone(then func()) {
	n.exiting = true
	debug.Log("mode", "leaving %s", n.mode)
	n.hw.ExitStandalone(func() {
		n.exiting = false
		then()
	})
}

func (n *Navigator) selectPrevious() {
	n.selectOrModeSelect(n.history.Previous)
}

func (n *Navigator) selectOrModeSelect(m Mode) {
	if m == "" || m == n.mode || IsTransient(m) {
		n.Enter(config.ModeSelect)
		return
	}
	n.Enter(m)
}

func (n *Navigator) handleEdit(g gesture.Gesture) {
	ed := n.editor
	if g.Key == gesture.ModeKey {
		switch g.Kind {
		case gesture.Press:
			n.applyEdit(ed.Back())
		case gesture.LongPress:
			ed.StartDelete(n.applyEdit)
		case gesture.Release:
			ed.AbortDelete()
		}
		return
	}

	switch ed.Window() {
	case trackcontrols.WindowTopControl, trackcontrols.WindowBottomControl:
		if g.Key == gesture.ActionKey {
			switch g.Kind {
			case gesture.Press:
				ed.OpenActions(false)
			case gesture.LongPress:
				ed.OpenActions(true)
			}
			return
		}
		if c, ok := EditControlKeys[g.Key]; ok && g.Kind == gesture.Press {
			n.applyEdit(ed.SelectControl(c))
		}
	case trackcontrols.WindowAction, trackcontrols.WindowActionAlt:
		if g.Kind != gesture.Press {
			return
		}
		keys := TransportKeyMap
		if ed.Window() == trackcontrols.WindowActionAlt {
			keys = UtilityKeyMap
		}
		if a, ok := keys[g.Key]; ok {
			n.applyEdit(ed.SelectAction(a))
		}
	}
}

func (n *Navigator) applyEdit(r trackcontrols.Result) {
	slot := n.editor.Slot()
	switch r.Outcome {
	case trackcontrols.Cancelled, trackcontrols.Deleted:
		n.Enter(config.ModeSelect)
	case trackcontrols.Committed:
		n.Enter(config.TrackControlsMode(slot))
	}
	n.display.Popup(r.Popup)
	n.display.Refresh()
}

func (n *Navigator) perform(a config.Action) {
	before := n.host.ActionState(a)
	if a == config.ActionQuantize {
		n.host.QuantizeClip(n.cfg.QuantizeTo, n.cfg.QuantizeAmount)
	} else {
		n.host.Perform(a)
	}
	// Momentary actions have no state to show, so flash their name instead.
	if c := actionLEDs[a]; c.on == c.off && n.host.ActionState(a) == before {
		n.display.Popup(config.ActionAbbreviations[a])
	}
}

// Frame is the desired controller state for the active mode.
func (n *Navigator) Frame() render.Frame {
	var f render.Frame
	switch {
	case IsHidden(n.mode), IsStandalone(n.mode):
		f.HideText = true
		return f
	case IsEdit(n.mode):
		n.renderEdit(&f)
		return f
	case n.mode == config.ModeSelect:
		n.renderSelect(&f)
	default:
		n.handler.render(&f)
		for k, a := range n.overrides {
			f.LEDs[k] = ActionLED(a, n.host.ActionState(a))
		}
	}

	switch {
	case n.modeKeyDelayed:
		f.LEDs[gesture.ModeKey] = midi.GreenFastBlink()
	case IsTransient(n.mode):
		f.LEDs[gesture.ModeKey] = midi.RedOn()
	default:
		f.LEDs[gesture.ModeKey] = midi.GreenOn()
	}
	return f
}

func (n *Navigator) renderSelect(f *render.Frame) {
	f.Text = DisplayName(config.ModeSelect)
	for k, e := range n.selectMap {
		var led midi.LED
		switch {
		case n.delayed == k:
			led = midi.GreenFastBlink()
		case IsTrackControls(e.Primary):
			if n.engine.Enabled(e.Primary.Index()) {
				led = midi.RedBlink()
			}
		case IsDevice(e.Primary):
			led = midi.GreenBlink()
		default:
			led = midi.YellowBlink()
		}
		f.LEDs[k] = led
	}
}

func (n *Navigator) renderEdit(f *render.Frame) {
	ed := n.editor
	f.Text = ed.DisplayText()
	if ed.Deleting() {
		f.LEDs[gesture.ModeKey] = midi.RedFastBlink()
	} else {
		f.LEDs[gesture.ModeKey] = midi.RedOn()
	}

	switch ed.Window() {
	case trackcontrols.WindowTopControl, trackcontrols.WindowBottomControl:
		f.LEDs[gesture.ActionKey] = midi.YellowOn()
		for k, c := range EditControlKeys {
			f.LEDs[k] = controlLEDs[c]
		}
	case trackcontrols.WindowAction, trackcontrols.WindowActionAlt:
		keys := TransportKeyMap
		if ed.Window() == trackcontrols.WindowActionAlt {
			keys = UtilityKeyMap
		}
		for k, a := range keys {
			led := blink(ActionLED(a, true))
			if a == ed.PendingAction() {
				led = ActionLED(a, true)
			}
			f.LEDs[k] = led
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
