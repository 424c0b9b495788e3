package session

import (
	"context"
	"slices"
	"testing"
	"time"

	"modestep/config"
	"modestep/gesture"
	"modestep/host"
	"modestep/midi"
	"modestep/modes"
	"modestep/protocol"
	"modestep/sched"
)

// syncQueue runs posted work immediately on the test goroutine.
type syncQueue struct{ *sched.Fake }

func (q syncQueue) Post(fn func()) { fn() }

var identity = midi.Event{Kind: midi.IdentityReply, Data: []byte{0x7E, 0x00, 0x06, 0x02, 0x00, 0x01, 0x5F}}

type fixture struct {
	q   syncQueue
	mem *host.Memory
	rec *midi.Recorder
	s   *Session
}

func newFixture(cfg config.Configuration) *fixture {
	f := &fixture{
		q:   syncQueue{sched.NewFake()},
		mem: host.NewMemory("set", 8, 2),
		rec: midi.NewRecorder(),
	}
	f.s = New(cfg, f.mem, f.q)
	return f
}

func (f *fixture) connect() {
	f.s.Submit(Connected{ID: "SoftStep", Output: f.rec})
	f.s.Submit(Input{identity})
	f.q.Flush()
}

func (f *fixture) tap(k gesture.Key) {
	f.s.Submit(Input{midi.Event{Kind: midi.KeyDown, Key: k}})
	f.s.Submit(Input{midi.Event{Kind: midi.KeyUp, Key: k}})
}

func TestConnectRunsHandshake(t *testing.T) {
	f := newFixture(config.Default())
	if snap := f.s.Snapshot(); snap.State != protocol.Disconnected || snap.Mode != modes.Disabled {
		t.Fatalf("before connect: %+v", snap)
	}
	f.connect()

	snap := f.s.Snapshot()
	if snap.State != protocol.Initialized {
		t.Fatalf("state %v", snap.State)
	}
	if snap.Mode != config.ModeTransport || snap.Text != "Trns" {
		t.Errorf("mode %v text %q", snap.Mode, snap.Text)
	}
	if snap.Device != "SoftStep" || snap.Project != "set" || snap.ID == "" {
		t.Errorf("snapshot %+v", snap)
	}
	if text, _ := f.rec.Display(); text != "Trns" {
		t.Errorf("display %q", text)
	}
}

func TestKeysBecomeGestures(t *testing.T) {
	f := newFixture(config.Default())
	f.connect()

	f.tap(gesture.ModeKey)
	if m := f.s.Snapshot().Mode; m != config.ModeSelect {
		t.Fatalf("mode %v", m)
	}
	f.tap(6)
	if m := f.s.Snapshot().Mode; m != config.ModeDeviceParametersXY {
		t.Fatalf("mode %v", m)
	}
	if p := f.s.Snapshot().Previous; p != config.ModeTransport {
		t.Errorf("previous %v", p)
	}
}

func TestLongPressFiresFromTimers(t *testing.T) {
	f := newFixture(config.Default())
	f.connect()
	f.tap(gesture.ModeKey)

	f.s.Submit(Input{midi.Event{Kind: midi.KeyDown, Key: 6}})
	if held := f.s.Snapshot().Held; !slices.Equal(held, []gesture.Key{6}) {
		t.Errorf("held %v", held)
	}
	f.q.Advance(f.s.Config().LongPressDelay.Duration())
	f.s.Submit(Input{midi.Event{Kind: midi.KeyUp, Key: 6}})

	if m := f.s.Snapshot().Mode; m != config.ModeDeviceBankSelect {
		t.Errorf("mode %v", m)
	}
}

func TestInputDroppedBeforeHandshake(t *testing.T) {
	f := newFixture(config.Default())
	f.s.Submit(Connected{ID: "SoftStep", Output: f.rec})
	f.tap(gesture.ModeKey)
	f.s.Submit(Input{identity})
	f.q.Flush()

	if m := f.s.Snapshot().Mode; m != config.ModeTransport {
		t.Errorf("mode %v", m)
	}
}

func TestPressureReachesParameters(t *testing.T) {
	cfg := config.Default()
	cfg.InitialMode = config.ModeDeviceParametersPressure
	f := newFixture(cfg)
	f.connect()

	f.s.Submit(Input{midi.Event{Kind: midi.KeyPressure, Key: 6, Value: cfg.FullPressure}})
	if v := f.mem.Parameters()[0].Value; v != 1 {
		t.Errorf("parameter 0 = %v", v)
	}
}

func TestNavPadMovesSelection(t *testing.T) {
	f := newFixture(config.Default())
	f.connect()

	f.s.Submit(Input{midi.Event{Kind: midi.Nav, Dir: gesture.Right, Value: 127}})
	f.s.Submit(Input{midi.Event{Kind: midi.Nav, Dir: gesture.Up, Value: 127}})
	if tr, sc := f.mem.SelectedTrack(), f.mem.SelectedScene(); tr != 1 || sc != 1 {
		t.Errorf("track %d scene %d", tr, sc)
	}
	if sel := f.s.Snapshot().Selected; sel != 1 {
		t.Errorf("snapshot selected %d", sel)
	}
}

func TestDisconnectMatchesDevice(t *testing.T) {
	f := newFixture(config.Default())
	f.connect()

	f.s.Submit(Disconnected{ID: "other"})
	if st := f.s.Snapshot().State; st != protocol.Initialized {
		t.Fatalf("unrelated disconnect: state %v", st)
	}
	f.s.Submit(Disconnected{ID: "SoftStep"})
	snap := f.s.Snapshot()
	if snap.State != protocol.Disconnected || snap.Mode != modes.Disabled || snap.Device != "" {
		t.Errorf("snapshot %+v", snap)
	}

	f.rec.Reset()
	f.tap(gesture.ModeKey)
	if n := len(f.rec.Sent()); n != 0 {
		t.Errorf("writes after disconnect: %v", f.rec.Lines())
	}
}

func TestProjectOpenRebuildsSession(t *testing.T) {
	f := newFixture(config.Default())
	f.connect()
	f.tap(gesture.ModeKey)
	first := f.s.Snapshot().ID

	next := host.NewMemory("live set", 4, 1)
	next.SetClipNames("intro", `ms<{"initial_mode": "utility"}`)
	f.s.Submit(ProjectOpened{Host: next})
	if st := f.s.Snapshot().State; st != protocol.Handshaking {
		t.Fatalf("state %v, want a fresh handshake", st)
	}
	f.s.Submit(Input{identity})
	f.q.Flush()

	snap := f.s.Snapshot()
	if snap.ID == first {
		t.Error("session id reused")
	}
	if snap.Project != "live set" || snap.Mode != config.ModeUtility {
		t.Errorf("project %q mode %v", snap.Project, snap.Mode)
	}
	if snap.Previous != config.ModeSelect {
		t.Errorf("history carried over: previous %v", snap.Previous)
	}
	if f.s.Config().InitialMode != config.ModeUtility {
		t.Errorf("config %v", f.s.Config().InitialMode)
	}
}

func TestShutdownSaysGoodbye(t *testing.T) {
	cfg := config.Default()
	p := 5
	cfg.DisconnectProgram = &p
	f := newFixture(cfg)
	f.connect()
	f.rec.Reset()

	f.s.Close(time.Second)
	want := []string{"standalone on", "pc 5"}
	if got := f.rec.Lines(); !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAttachOnLoop(t *testing.T) {
	loop := sched.NewLoop(64)
	s := New(config.Default(), host.NewMemory("set", 8, 2), loop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	v := midi.NewVirtual("virtual")
	s.Attach(v)
	waitFor(t, s, func(snap Snapshot) bool {
		return snap.State == protocol.Initialized && snap.Mode == config.ModeTransport
	})

	v.Down(gesture.ModeKey)
	v.Up(gesture.ModeKey)
	waitFor(t, s, func(snap Snapshot) bool { return snap.Mode == config.ModeSelect })

	v.Close()
	waitFor(t, s, func(snap Snapshot) bool { return snap.State == protocol.Disconnected })
}

func waitFor(t *testing.T, s *Session, ok func(Snapshot) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if ok(s.Snapshot()) {
			return
		}
		select {
		case <-s.Updates():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out, last snapshot %+v", s.Snapshot())
		}
	}
}
