// Package session wires one project's components together. Every input,
// from the controller or from the host, goes through a single queue and is
// handled on the loop.
package session

import (
	"time"

	"github.com/google/uuid"

	"modestep/config"
	"modestep/debug"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/modes"
	"modestep/protocol"
	"modestep/render"
	"modestep/sched"
)

// Queue runs functions on the session's loop. *sched.Loop is the real one.
type Queue interface {
	sched.Scheduler
	Post(fn func())
}

// Event is anything submitted to a session.
type Event interface{ event() }

// Connected reports a controller appearing on ID.
type Connected struct {
	ID     string
	Output midi.Output
}

// Disconnected reports the controller on ID going away.
type Disconnected struct{ ID string }

// Input is a decoded message from the connected controller.
type Input struct{ midi.Event }

// ProjectOpened replaces the host. The session is rebuilt from scratch and
// an attached controller goes through the handshake again.
type ProjectOpened struct{ Host host.Host }

// Shutdown hands the controller back to its own presets.
type Shutdown struct{}

// detached is sent by an Attach pump when its event channel closes.
type detached struct{ out midi.Output }

func (Connected) event()     {}
func (Disconnected) event()  {}
func (Input) event()         {}
func (ProjectOpened) event() {}
func (Shutdown) event()      {}
func (detached) event()      {}

// publishInterval bounds how stale a Snapshot gets when only timers run.
const publishInterval = 100 * time.Millisecond

// Session owns the components of one open project. Apart from Submit,
// Attach, Watch, Close, Snapshot and Updates, everything runs on the loop.
type Session struct {
	user config.Configuration
	q    Queue

	id       uuid.UUID
	cfg      config.Configuration
	host     host.Host
	keys     *gesture.Processor
	nav      *modes.Navigator
	pipeline *render.Pipeline
	ctl      *protocol.Controller
	ticker   *sched.Timer

	device  string
	out     midi.Output
	lastErr error

	snap    snapshotBox
	updates chan struct{}
}

// New opens a session for h. user is the configuration below any
// per-project overrides found in h's metadata.
func New(user config.Configuration, h host.Host, q Queue) *Session {
	s := &Session{user: user, q: q, updates: make(chan struct{}, 1)}
	s.open(h)
	s.publish()
	return s
}

func (s *Session) open(h host.Host) {
	if s.ctl != nil {
		s.teardown()
	}
	s.id = uuid.New()
	s.host = h
	s.cfg = config.Resolve(s.user, h.ClipNames())
	if c, ok := h.(host.Configurable); ok {
		c.Configure(&s.cfg)
	}

	s.nav = modes.New(&s.cfg, h, s.q)
	s.pipeline = render.NewPipeline(nil, s.q)
	s.pipeline.SetSource(s.nav.Frame)
	s.nav.SetDisplay(s.pipeline)
	s.ctl = protocol.New(&s.cfg, s.q, s.pipeline, s.nav)
	s.ctl.OnState(s.stateChanged)
	s.nav.SetHardware(s.ctl)
	s.keys = gesture.NewProcessor(s.q, s.cfg.LongPressDelay.Duration(), s.nav.Handle)
	s.ticker = s.q.After(publishInterval, s.tick)
	s.lastErr = nil

	debug.Info("session", "%s: opened %q", s.id, h.ProjectName())
}

func (s *Session) teardown() {
	debug.Info("session", "%s: closing %q", s.id, s.host.ProjectName())
	s.ticker.Stop()
	s.keys.Reset()
	s.ctl.Disconnect()
}

// Config returns the effective configuration.
func (s *Session) Config() config.Configuration {
	return s.cfg
}

// Submit queues ev. Safe from any goroutine.
func (s *Session) Submit(ev Event) {
	s.q.Post(func() { s.dispatch(ev) })
}

// Attach connects c and forwards its events until its channel closes.
func (s *Session) Attach(c midi.Controller) {
	s.Submit(Connected{ID: c.ID(), Output: c})
	go func() {
		for ev := range c.Events() {
			s.Submit(Input{ev})
		}
		s.Submit(detached{out: c})
	}()
}

// DeviceSource reports controllers coming and going.
type DeviceSource interface {
	Events() <-chan midi.DeviceEvent
}

// Watch attaches controllers as src finds them. Returns once src's event
// channel closes.
func (s *Session) Watch(src DeviceSource) {
	for ev := range src.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			s.Attach(ev.Controller)
		case midi.DeviceDisconnected:
			s.Submit(Disconnected{ID: ev.ID})
		}
	}
}

// Close says goodbye to the controller, waiting at most timeout for the
// loop to get to it.
func (s *Session) Close(timeout time.Duration) {
	done := make(chan struct{})
	s.q.Post(func() {
		s.dispatch(Shutdown{})
		close(done)
	})
	select {
	case <-done:
	case <-time.After(timeout):
		debug.Warn("session", "%s: shutdown timed out after %s", s.id, timeout)
	}
}

func (s *Session) dispatch(ev Event) {
	switch ev := ev.(type) {
	case Connected:
		debug.Info("session", "%s: controller %s connected", s.id, ev.ID)
		s.device, s.out = ev.ID, ev.Output
		s.keys.Reset()
		s.ctl.Connect(ev.Output)
	case Disconnected:
		if ev.ID != s.device {
			debug.Log("session", "ignoring disconnect of %s", ev.ID)
			break
		}
		s.disconnect()
	case detached:
		if s.out != nil && ev.out == s.out {
			s.disconnect()
		}
	case Input:
		s.input(ev.Event)
	case ProjectOpened:
		s.open(ev.Host)
		if s.out != nil {
			s.ctl.Connect(s.out)
		}
	case Shutdown:
		s.ticker.Stop()
		s.keys.Reset()
		s.ctl.Goodbye()
	}
	s.publish()
}

func (s *Session) disconnect() {
	debug.Info("session", "%s: controller %s disconnected", s.id, s.device)
	s.keys.Reset()
	s.ctl.Disconnect()
	s.device, s.out = "", nil
}

func (s *Session) input(ev midi.Event) {
	if !s.ctl.HandleEvent(ev) {
		return
	}
	switch ev.Kind {
	case midi.KeyDown:
		s.keys.Down(ev.Key)
	case midi.KeyUp:
		s.keys.Up(ev.Key)
	case midi.KeyPressure:
		s.nav.Pressure(gesture.Pressure{Key: ev.Key, Value: ev.Value, X: ev.X, Y: ev.Y})
	case midi.Expression:
		s.nav.Expression(ev.Value)
	case midi.Nav:
		s.nav.Navigate(ev.Dir)
	}
}

func (s *Session) stateChanged(st protocol.State, err error) {
	if err != nil {
		debug.Warn("session", "%s: %s: %v", s.id, st, err)
	}
	s.lastErr = err
}

func (s *Session) tick() {
	s.publish()
	s.ticker = s.q.After(publishInterval, s.tick)
}
