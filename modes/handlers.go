package modes

import (
	"fmt"
	"time"

	"modestep/config"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/render"
	"modestep/sched"
	"modestep/trackcontrols"
)

// handler is the hosted behaviour of one mode. Mode select, edit and
// standalone handling live on the Navigator itself.
type handler interface {
	enter()
	exit()
	gesture(g gesture.Gesture)
	pressure(p gesture.Pressure)
	render(f *render.Frame)
}

type baseHandler struct{}

func (baseHandler) enter()                    {}
func (baseHandler) exit()                     {}
func (baseHandler) gesture(gesture.Gesture)   {}
func (baseHandler) pressure(gesture.Pressure) {}
func (baseHandler) render(*render.Frame)      {}

func (n *Navigator) newHandler(m Mode) handler {
	switch {
	case m == config.ModeTransport:
		return &actionHandler{nav: n, mode: m, keys: TransportKeyMap}
	case m == config.ModeUtility:
		return &actionHandler{nav: n, mode: m, keys: UtilityKeyMap}
	case IsTrackControls(m):
		return &trackHandler{nav: n, slot: m.Index()}
	case IsDevice(m):
		return &deviceHandler{nav: n, mode: m}
	}
	return baseHandler{}
}

// actionHandler binds keys to transport or utility actions.
type actionHandler struct {
	baseHandler
	nav  *Navigator
	mode Mode
	keys map[gesture.Key]config.Action
}

func (h *actionHandler) gesture(g gesture.Gesture) {
	if a, ok := h.keys[g.Key]; ok && g.Kind == gesture.Press {
		h.nav.perform(a)
	}
}

func (h *actionHandler) render(f *render.Frame) {
	f.Text = DisplayName(h.mode)
	for k, a := range h.keys {
		f.LEDs[k] = ActionLED(a, h.nav.host.ActionState(a))
	}
}

// trackHandler runs a track_controls slot.
type trackHandler struct {
	baseHandler
	nav    *Navigator
	slot   int
	s      trackcontrols.Slot
	layout map[gesture.Key]trackcontrols.Binding
	volume *incrementer
}

func (h *trackHandler) enter() {
	h.s = h.nav.engine.Slot(h.slot)
	h.layout = h.s.Layout(h.nav.cfg.WideClipLaunch)
	hst := h.nav.host
	h.volume = newIncrementer(h.nav, func(track int, delta float64) {
		if tracks := hst.Tracks(); track < len(tracks) {
			hst.SetVolume(track, tracks[track].Volume+delta)
		}
	})
}

func (h *trackHandler) exit() {
	h.volume.stop()
}

func (h *trackHandler) gesture(g gesture.Gesture) {
	if !h.s.Enabled {
		return
	}
	hst := h.nav.host
	if g.Key == gesture.ActionKey {
		if g.Kind == gesture.Press {
			h.nav.perform(h.s.Action)
		}
		return
	}
	b, ok := h.layout[g.Key]
	if !ok {
		return
	}

	if b.Control == config.ControlTrackSelect {
		if g.Kind == gesture.HoldStart && h.nav.selectable(g.Key) {
			hst.SelectTrack(b.Track)
		}
		return
	}

	tracks := hst.Tracks()
	if b.Track >= len(tracks) {
		return
	}
	t := tracks[b.Track]
	switch g.Kind {
	case gesture.Press:
		switch b.Control {
		case config.ControlArm:
			hst.SetArm(b.Track, !t.Arm)
		case config.ControlMute:
			hst.SetMute(b.Track, !t.Mute)
		case config.ControlSolo:
			hst.SetSolo(b.Track, !t.Solo)
		case config.ControlClipLaunch:
			hst.LaunchClip(b.Track, b.Scene)
		case config.ControlStopTrackClip:
			hst.StopTrackClips(b.Track)
		}
	case gesture.LongPress:
		if b.Control == config.ControlClipLaunch && h.nav.cfg.ClipLongPressAction != nil {
			hst.StopTrackClips(b.Track)
		}
	}
}

func (h *trackHandler) pressure(p gesture.Pressure) {
	if b, ok := h.layout[p.Key]; ok && h.s.Enabled && b.Control == config.ControlVolume {
		h.volume.update(b.Track, p)
	}
}

func (h *trackHandler) render(f *render.Frame) {
	f.Text = h.s.DisplayText()
	if !h.s.Enabled {
		return
	}
	hst := h.nav.host
	tracks := hst.Tracks()
	selected := hst.SelectedTrack()
	_, scenes := hst.Size()
	for k, b := range h.layout {
		if b.Track >= len(tracks) {
			continue
		}
		t := tracks[b.Track]
		var led midi.LED
		switch b.Control {
		case config.ControlTrackSelect:
			led = toggleLED(b.Track == selected)
		case config.ControlArm:
			if t.Armable {
				led = toggleLED(t.Arm)
			}
		case config.ControlMute:
			led = toggleLED(t.Mute)
		case config.ControlSolo:
			led = toggleLED(t.Solo)
		case config.ControlVolume:
			led = midi.YellowOn()
		case config.ControlClipLaunch:
			led = clipLED(hst.ClipState(b.Track, b.Scene))
		case config.ControlStopTrackClip:
			for s := 0; s < scenes; s++ {
				if hst.ClipState(b.Track, s) == host.ClipPlaying {
					led = midi.RedOn()
				}
			}
		}
		f.LEDs[k] = led
	}
	f.LEDs[gesture.ActionKey] = ActionLED(h.s.Action, hst.ActionState(h.s.Action))
}

func toggleLED(on bool) midi.LED {
	if on {
		return midi.GreenOn()
	}
	return midi.RedOn()
}

func clipLED(s host.ClipState) midi.LED {
	switch s {
	case host.ClipPlaying:
		return midi.GreenBlink()
	case host.ClipRecording:
		return midi.RedBlink()
	case host.ClipTriggered:
		return midi.GreenFastBlink()
	case host.ClipStopped:
		return midi.GreenOn()
	}
	return midi.Off
}

// deviceHandler covers the device_* modes. Grid keys address the eight
// parameters of the selected bank, top row first; key 5 is device lock.
type deviceHandler struct {
	baseHandler
	nav  *Navigator
	mode Mode
	inc  *incrementer
}

const gridParameters = 2 * trackcontrols.TracksPerRow

func parameterIndex(k gesture.Key) (int, bool) {
	if !k.Valid() || k == gesture.ModeKey || k == gesture.ActionKey {
		return 0, false
	}
	row, col := k.Position()
	return row*trackcontrols.TracksPerRow + col, true
}

func parameterKey(i int) gesture.Key {
	return gesture.KeyAt(i/trackcontrols.TracksPerRow, i%trackcontrols.TracksPerRow)
}

func (h *deviceHandler) enter() {
	hst := h.nav.host
	h.inc = newIncrementer(h.nav, func(i int, delta float64) {
		if params := hst.Parameters(); i < len(params) {
			hst.SetParameter(i, params[i].Value+delta)
		}
	})
}

func (h *deviceHandler) exit() {
	h.inc.stop()
}

func (h *deviceHandler) gesture(g gesture.Gesture) {
	if g.Kind != gesture.Press {
		return
	}
	if g.Key == gesture.ActionKey {
		h.nav.perform(config.ActionDeviceLock)
		return
	}
	i, ok := parameterIndex(g.Key)
	if !ok {
		return
	}
	hst := h.nav.host
	switch h.mode {
	case config.ModeDeviceBankSelect:
		if i < hst.Banks() && h.nav.selectable(g.Key) {
			hst.SelectBank(i)
			h.nav.display.Popup(fmt.Sprintf("BnK%d", i+1))
		}
	case config.ModeDeviceExpressionMap:
		if params := hst.Parameters(); i < len(params) && h.nav.selectable(g.Key) {
			h.nav.exprParam = i
			h.nav.exprSeen = false
			h.nav.display.Popup(params[i].Name)
		}
	}
}

func (h *deviceHandler) pressure(p gesture.Pressure) {
	i, ok := parameterIndex(p.Key)
	if !ok {
		return
	}
	hst := h.nav.host
	full := float64(h.nav.cfg.FullPressure)
	switch h.mode {
	case config.ModeDeviceParametersPressure:
		hst.SetParameter(i, clamp(float64(p.Value)/full))
	case config.ModeDeviceParametersLatch:
		if p.Value > 0 {
			hst.SetParameter(i, clamp(float64(p.Value)/full))
		}
	case config.ModeDeviceParametersIncrement:
		h.inc.update(i, p)
	case config.ModeDeviceParametersXY:
		// Each column drives a parameter pair from the key's tilt. The top
		// row springs back to centre on release, the bottom row latches.
		row, col := p.Key.Position()
		if p.Value == 0 {
			if row == 0 {
				hst.SetParameter(2*col, 0.5)
				hst.SetParameter(2*col+1, 0.5)
			}
			return
		}
		hst.SetParameter(2*col, clamp(0.5+float64(p.X)/(2*full)))
		hst.SetParameter(2*col+1, clamp(0.5+float64(p.Y)/(2*full)))
	}
	h.nav.display.Refresh()
}

func (h *deviceHandler) render(f *render.Frame) {
	f.Text = DisplayName(h.mode)
	hst := h.nav.host
	params := hst.Parameters()
	switch h.mode {
	case config.ModeDeviceBankSelect:
		for i := 0; i < hst.Banks() && i < gridParameters; i++ {
			f.LEDs[parameterKey(i)] = toggleLED(i == hst.Bank())
		}
	case config.ModeDeviceExpressionMap:
		for i := range min(len(params), gridParameters) {
			f.LEDs[parameterKey(i)] = toggleLED(i == h.nav.exprParam)
		}
	default:
		for i, p := range params {
			if i < gridParameters && p.Value > 0 {
				f.LEDs[parameterKey(i)] = midi.GreenOn()
			}
		}
	}
	f.LEDs[gesture.ActionKey] = ActionLED(config.ActionDeviceLock, hst.Locked())
}

const incrementTick = 50 * time.Millisecond

// incrementer moves values while keys are held, up or down by the key's
// vertical tilt, faster with more pressure.
type incrementer struct {
	nav   *Navigator
	apply func(i int, delta float64)
	rates map[int]float64
	timer *sched.Timer
	last  time.Time
}

func newIncrementer(nav *Navigator, apply func(i int, delta float64)) *incrementer {
	return &incrementer{nav: nav, apply: apply, rates: make(map[int]float64)}
}

func (inc *incrementer) update(i int, p gesture.Pressure) {
	if p.Value == 0 || p.Y == 0 {
		delete(inc.rates, i)
		return
	}
	steps := inc.nav.cfg.IncrementalStepsPerSecond
	frac := clamp(float64(p.Value) / float64(inc.nav.cfg.FullPressure))
	rate := steps[0] + (steps[1]-steps[0])*frac
	if p.Y < 0 {
		rate = -rate
	}
	inc.rates[i] = rate
	if !inc.timer.Active() {
		inc.last = inc.nav.sched.Now()
		inc.timer = inc.nav.sched.After(incrementTick, inc.tick)
	}
}

func (inc *incrementer) tick() {
	now := inc.nav.sched.Now()
	dt := now.Sub(inc.last).Seconds()
	inc.last = now
	for i, rate := range inc.rates {
		inc.apply(i, rate*dt/127)
	}
	if len(inc.rates) > 0 {
		inc.timer = inc.nav.sched.After(incrementTick, inc.tick)
	}
	inc.nav.display.Refresh()
}

func (inc *incrementer) stop() {
	inc.timer.Stop()
	clear(inc.rates)
}
