// Package protocol runs the controller handshake and the switches between
// hosted and standalone operation.
package protocol

import (
	"errors"
	"time"

	"modestep/config"
	"modestep/debug"
	"modestep/midi"
	"modestep/modes"
	"modestep/render"
	"modestep/sched"
)

// ErrNoIdentity means the controller never answered the identity query.
var ErrNoIdentity = errors.New("controller did not answer identity request")

// State is the connection state.
type State int

const (
	Disconnected State = iota
	Handshaking
	Initialized
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Initialized:
		return "initialized"
	}
	return "unknown"
}

// Navigator is the part of the mode state machine the controller drives.
type Navigator interface {
	Enter(m modes.Mode)
	Disable()
	Restore()
}

// Controller owns the connection state. It gates the render pipeline and
// implements modes.Hardware. All methods run on the loop.
type Controller struct {
	cfg      *config.Configuration
	sched    sched.Scheduler
	pipeline *render.Pipeline
	nav      Navigator
	out      midi.Output

	state      State
	attempts   int
	retry      *sched.Timer
	next       *sched.Timer
	identified bool // at least one handshake completed
	reconnect  bool
	graceUntil time.Time

	standalone bool
	program    int

	onState func(State, error)
}

// New creates a disconnected controller.
func New(cfg *config.Configuration, s sched.Scheduler, p *render.Pipeline, nav Navigator) *Controller {
	return &Controller{cfg: cfg, sched: s, pipeline: p, nav: nav, program: -1}
}

// OnState registers a callback for state changes. err is set when a
// handshake gives up.
func (c *Controller) OnState(fn func(State, error)) {
	c.onState = fn
}

// State returns the connection state.
func (c *Controller) State() State {
	return c.state
}

// Standalone reports whether the controller is running its own presets.
func (c *Controller) Standalone() bool {
	return c.standalone
}

// InGrace reports whether stray messages after a reconnect are being
// dropped silently.
func (c *Controller) InGrace() bool {
	return !c.graceUntil.IsZero() && c.sched.Now().Before(c.graceUntil)
}

// Connect starts a handshake on out. It is also the reconnect signal.
func (c *Controller) Connect(out midi.Output) {
	c.cancel()
	if c.state == Initialized {
		c.nav.Disable()
	}
	c.out = out
	c.pipeline.SetGated(true)
	c.pipeline.SetOutput(out)
	c.standalone = false
	c.program = -1
	c.attempts = 0
	c.reconnect = c.identified
	c.setState(Handshaking, nil)
	c.query()
}

// Disconnect parks the session until the next Connect.
func (c *Controller) Disconnect() {
	c.cancel()
	c.nav.Disable()
	c.pipeline.SetGated(true)
	c.pipeline.SetOutput(nil)
	c.out = nil
	c.standalone = false
	c.setState(Disconnected, nil)
}

// HandleEvent takes the messages the controller is responsible for and
// reports whether ev should go on to gesture processing.
func (c *Controller) HandleEvent(ev midi.Event) bool {
	switch ev.Kind {
	case midi.IdentityReply:
		c.onIdentity(ev)
		return false
	case midi.Unrecognized:
		if c.state == Initialized && !c.InGrace() {
			debug.LogEvery(50, "protocol", "dropped unexpected message: cc %d", ev.Value)
		}
		return false
	case midi.ProgramChange:
		debug.Log("protocol", "controller program change %d", ev.Value)
		return false
	}
	return c.state == Initialized
}

// Goodbye hands the controller back to its own presets on shutdown.
func (c *Controller) Goodbye() {
	c.cancel()
	if c.out == nil {
		return
	}
	c.pipeline.SetGated(true)
	c.write("standalone", c.out.EnterStandalone())
	if p := c.cfg.DisconnectProgram; p != nil {
		c.write("program", c.out.SendProgram(midi.StandaloneProgram{Program: *p}))
	}
	if b := c.cfg.DisconnectBacklight; b != nil {
		c.write("backlight", c.out.SetBacklight(*b))
	}
	c.standalone = true
	c.setState(Disconnected, nil)
}

func (c *Controller) query() {
	c.attempts++
	debug.Log("protocol", "identity query %d/%d", c.attempts, c.cfg.IdentityAttempts)
	c.write("identity", c.out.IdentityQuery())
	timeout := c.cfg.IdentityTimeout.Duration() << (c.attempts - 1)
	c.retry = c.sched.After(timeout, c.queryTimeout)
}

func (c *Controller) queryTimeout() {
	if c.attempts < c.cfg.IdentityAttempts {
		c.query()
		return
	}
	debug.Warn("protocol", "%v after %d attempts", ErrNoIdentity, c.attempts)
	c.nav.Disable()
	c.setState(Disconnected, ErrNoIdentity)
}

func (c *Controller) onIdentity(ev midi.Event) {
	if c.state != Handshaking {
		debug.Log("protocol", "ignoring identity reply while %s", c.state)
		return
	}
	c.retry.Stop()
	debug.Info("protocol", "controller identified: % X", ev.Data)

	c.pipeline.Blank()
	c.nav.Disable()
	c.nav.Enter(modes.StandaloneInit)
	c.sendBackground()
	c.enterStandalone()
	c.next = c.sched.After(0, c.finishHandshake)
}

// finishHandshake runs on the loop turn after the identity reply, once the
// standalone switch has gone out.
func (c *Controller) finishHandshake() {
	c.exitStandalone()
	if b := c.cfg.Backlight; b != nil {
		c.write("backlight", c.out.SetBacklight(*b))
	}
	if c.reconnect {
		c.graceUntil = c.sched.Now().Add(c.cfg.ReconnectGrace.Duration())
	}
	c.identified = true
	c.setState(Initialized, nil)
	c.pipeline.Invalidate()
	c.nav.Restore()
	c.pipeline.SetGated(c.standalone)
}

// EnterStandalone switches the controller to a standalone program.
func (c *Controller) EnterStandalone(program int) {
	if c.out == nil {
		return
	}
	c.pipeline.SetGated(true)
	c.pipeline.Invalidate()
	c.sendBackground()
	c.enterStandalone()
	c.sendProgram(program, false)
}

// SwitchProgram changes programs without leaving standalone.
func (c *Controller) SwitchProgram(program int) {
	if c.out == nil {
		return
	}
	c.sendProgram(program, false)
}

// ExitStandalone loads the background program, then on the next loop turn
// returns to hosted mode, runs then and re-sends the full frame.
func (c *Controller) ExitStandalone(then func()) {
	if c.out == nil {
		then()
		return
	}
	c.sendBackground()
	c.next = c.sched.After(0, func() {
		c.exitStandalone()
		c.pipeline.Invalidate()
		then()
		c.pipeline.SetGated(c.standalone || c.state != Initialized)
	})
}

func (c *Controller) enterStandalone() {
	c.write("standalone", c.out.EnterStandalone())
	c.standalone = true
}

func (c *Controller) exitStandalone() {
	c.write("standalone", c.out.ExitStandalone())
	c.standalone = false
}

func (c *Controller) sendBackground() {
	if p := c.cfg.BackgroundProgram; p != nil {
		c.sendProgram(*p, true)
	}
}

// sendProgram skips a program the controller already has loaded.
func (c *Controller) sendProgram(program int, background bool) {
	if c.standalone && program == c.program {
		return
	}
	c.write("program", c.out.SendProgram(midi.StandaloneProgram{Program: program, Background: background}))
	c.program = program
}

func (c *Controller) cancel() {
	c.retry.Stop()
	c.next.Stop()
	c.retry, c.next = nil, nil
}

func (c *Controller) setState(s State, err error) {
	if c.state != s {
		debug.Log("protocol", "%s -> %s", c.state, s)
	}
	c.state = s
	if c.onState != nil {
		c.onState(s, err)
	}
}

func (c *Controller) write(what string, err error) {
	if err != nil {
		debug.Warn("protocol", "%s: %v", what, err)
	}
}
