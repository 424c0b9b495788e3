package midi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"modestep/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// Ports is a snapshot of the available port names
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// portTimeout bounds port enumeration; CoreMIDI can hang
const portTimeout = 3 * time.Second

// ListPorts enumerates ports, giving up after portTimeout
func ListPorts() (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(portTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, fmt.Errorf("port enumeration timed out after %s", portTimeout)
	}
}

// FindInPort returns the first input whose name contains substr
func FindInPort(ports []drivers.In, substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range ports {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", substr)
}

// FindOutPort returns the first output whose name contains substr
func FindOutPort(ports []drivers.Out, substr string) (drivers.Out, error) {
	lower := strings.ToLower(substr)
	for _, port := range ports {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", substr)
}

// DeviceManager handles hot-plug detection of the controller
type DeviceManager struct {
	match    string
	codec    Codec
	current  Controller
	mu       sync.RWMutex
	events   chan DeviceEvent
	pollRate time.Duration
}

// NewDeviceManager creates a manager watching for ports containing match
func NewDeviceManager(match string, codec Codec) *DeviceManager {
	return &DeviceManager{
		match:    strings.ToLower(match),
		codec:    codec,
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controller returns the connected controller (or nil)
func (dm *DeviceManager) Controller() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.current
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	ports, err := ListPorts()
	if err != nil {
		// skip this scan
		debug.Warn("devices", "%v", err)
		return
	}

	var found drivers.In
	for _, in := range ports.In {
		if strings.Contains(strings.ToLower(in.String()), dm.match) {
			found = in
			break
		}
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.current != nil && (found == nil || found.String() != dm.current.ID()) {
		id := dm.current.ID()
		dm.current.Close()
		dm.current = nil
		debug.Info("devices", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}

	if found == nil || dm.current != nil {
		return
	}

	// Find matching output port
	name := strings.ToLower(found.String())
	var out drivers.Out
	for _, op := range ports.Out {
		if strings.ToLower(op.String()) == name {
			out = op
			break
		}
	}
	if out == nil {
		out, _ = FindOutPort(ports.Out, dm.match)
	}

	ss, err := NewSoftStepController(found.String(), found, out, dm.codec)
	if err != nil {
		debug.Warn("devices", "open %s: %v", found, err)
		return
	}
	dm.current = ss
	debug.Info("devices", "connected %s", ss.ID())
	dm.events <- DeviceEvent{Type: DeviceConnected, Controller: ss, ID: ss.ID()}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.current != nil {
		dm.current.Close()
		dm.current = nil
	}
}
