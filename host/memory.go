package host

import (
	"fmt"
	"sync"

	"modestep/config"
	"modestep/debug"
)

// Memory is an in-process host. It is safe for concurrent use so the monitor
// can read it while the loop mutates it.
type Memory struct {
	mu sync.Mutex

	name      string
	tracks    []Track
	clips     map[[2]int]ClipState
	clipNames []string
	selected  int
	scene     int
	numScenes int

	trackOffset, sceneOffset int
	ringTracks, ringScenes   int

	params  []Parameter
	bank    int
	banks   int
	device  int
	devices int
	locked  bool
	toggles map[config.Action]bool

	performed []config.Action
	quantized []Quantized
	cfg       config.Configuration
}

// Quantized records a clip quantization.
type Quantized struct {
	Track, Scene int
	To           config.Quantization
	Amount       float64
}

// NewMemory creates a project with numTracks tracks and numScenes scenes.
func NewMemory(name string, numTracks, numScenes int) *Memory {
	m := &Memory{
		name:       name,
		clips:      make(map[[2]int]ClipState),
		ringTracks: 8,
		ringScenes: 2,
		numScenes:  numScenes,
		banks:      4,
		devices:    3,
		toggles:    make(map[config.Action]bool),
		cfg:        config.Default(),
	}
	for i := 0; i < numTracks; i++ {
		m.tracks = append(m.tracks, Track{Name: fmt.Sprintf("%d-Audio", i+1), Volume: 0.85, Armable: true})
		for s := 0; s < numScenes; s++ {
			m.clips[[2]int{i, s}] = ClipStopped
		}
	}
	for i := 0; i < 8; i++ {
		m.params = append(m.params, Parameter{Name: fmt.Sprintf("Macro %d", i+1)})
	}
	return m
}

// SetClipNames replaces the clip names scanned for configuration markers.
func (m *Memory) SetClipNames(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clipNames = append([]string(nil), names...)
}

func (m *Memory) ProjectName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *Memory) ClipNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.clipNames...)
}

// Configure applies the options the host itself is responsible for.
func (m *Memory) Configure(cfg *config.Configuration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = *cfg
	m.toggles[config.ActionAutoArm] = cfg.AutoArm
	if cfg.WideClipLaunch {
		m.ringScenes = 1
	} else {
		m.ringScenes = 2
	}
}

func (m *Memory) ring(i int) (int, bool) {
	t := m.trackOffset + i
	if i < 0 || i >= m.ringTracks || t >= len(m.tracks) {
		return 0, false
	}
	return t, true
}

func (m *Memory) Tracks() []Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Track
	for i := 0; i < m.ringTracks; i++ {
		if t, ok := m.ring(i); ok {
			out = append(out, m.tracks[t])
		}
	}
	return out
}

func (m *Memory) SelectedTrack() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected - m.trackOffset
}

func (m *Memory) SelectTrack(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.ring(i); ok {
		m.selectTrack(t)
	}
}

func (m *Memory) selectTrack(t int) {
	m.selected = t
	if m.cfg.AutoArm {
		for j := range m.tracks {
			m.tracks[j].Arm = j == t && m.tracks[j].Armable
		}
	}
	if m.cfg.LinkSessionRingToTrackSelection && (t < m.trackOffset || t >= m.trackOffset+m.ringTracks) {
		m.trackOffset = t
	}
}

func (m *Memory) StepTrack(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tracks) > 0 {
		m.selectTrack(step(m.selected, delta, len(m.tracks)))
	}
}

// SelectedScene is an absolute scene index.
func (m *Memory) SelectedScene() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scene
}

func (m *Memory) StepScene(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numScenes == 0 {
		return
	}
	m.scene = step(m.scene, delta, m.numScenes)
	if m.cfg.LinkSessionRingToSceneSelection && (m.scene < m.sceneOffset || m.scene >= m.sceneOffset+m.ringScenes) {
		m.sceneOffset = m.scene
	}
}

func (m *Memory) SelectedDevice() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// StepDevice moves to a neighbouring device, which starts on its first bank.
func (m *Memory) StepDevice(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := step(m.device, delta, m.devices); d != m.device {
		m.device = d
		m.bank = 0
	}
}

func step(i, delta, n int) int {
	return max(0, min(i+delta, n-1))
}

func (m *Memory) update(i int, fn func(*Track)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.ring(i); ok {
		fn(&m.tracks[t])
	}
}

func (m *Memory) SetArm(i int, on bool) {
	m.update(i, func(t *Track) {
		if t.Armable {
			t.Arm = on
		}
	})
}

func (m *Memory) SetMute(i int, on bool)     { m.update(i, func(t *Track) { t.Mute = on }) }
func (m *Memory) SetSolo(i int, on bool)     { m.update(i, func(t *Track) { t.Solo = on }) }
func (m *Memory) SetVolume(i int, v float64) { m.update(i, func(t *Track) { t.Volume = clamp(v) }) }

func (m *Memory) ClipState(track, scene int) ClipState {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.ring(track)
	if !ok {
		return ClipEmpty
	}
	return m.clips[[2]int{t, m.sceneOffset + scene}]
}

func (m *Memory) LaunchClip(track, scene int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.ring(track)
	if !ok {
		return
	}
	for k, s := range m.clips {
		if k[0] == t && s == ClipPlaying {
			m.clips[k] = ClipStopped
		}
	}
	key := [2]int{t, m.sceneOffset + scene}
	if m.clips[key] != ClipEmpty {
		m.clips[key] = ClipPlaying
	}
}

func (m *Memory) StopTrackClips(track int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.ring(track)
	if !ok {
		return
	}
	for k, s := range m.clips {
		if k[0] == t && s != ClipEmpty {
			m.clips[k] = ClipStopped
		}
	}
}

func (m *Memory) StopAllClips() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.clips {
		if s != ClipEmpty {
			m.clips[k] = ClipStopped
		}
	}
}

func (m *Memory) QuantizeClip(to config.Quantization, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performed = append(m.performed, config.ActionQuantize)
	key := [2]int{m.selected, m.scene}
	if m.clips[key] == ClipEmpty {
		return
	}
	m.quantized = append(m.quantized, Quantized{Track: m.selected, Scene: m.scene, To: to, Amount: amount})
	debug.Log("host", "quantize track %d scene %d to %s at %.2f", m.selected, m.scene, to, amount)
}

// Quantizations returns every clip quantization so far.
func (m *Memory) Quantizations() []Quantized {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Quantized(nil), m.quantized...)
}

func (m *Memory) Offset() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackOffset, m.sceneOffset
}

func (m *Memory) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ringTracks, m.ringScenes
}

func (m *Memory) Scroll(tracks, scenes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackOffset = max(0, min(m.trackOffset+tracks, len(m.tracks)-1))
	m.sceneOffset = max(0, min(m.sceneOffset+scenes, m.numScenes-1))
	if m.cfg.LinkSessionRingToTrackSelection {
		m.selected = m.trackOffset
	}
}

func (m *Memory) Parameters() []Parameter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Parameter(nil), m.params...)
}

func (m *Memory) SetParameter(i int, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= 0 && i < len(m.params) {
		m.params[i].Value = clamp(v)
	}
}

func (m *Memory) Bank() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bank
}

func (m *Memory) Banks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banks
}

func (m *Memory) SelectBank(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= 0 && i < m.banks {
		m.bank = i
	}
}

func (m *Memory) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

func (m *Memory) ToggleLock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = !m.locked
}

// Perform records the action. Toggle-style actions flip their state;
// clip-stopping actions act on the model.
func (m *Memory) Perform(a config.Action) {
	switch a {
	case config.ActionStopAllClips:
		m.StopAllClips()
	case config.ActionDeviceLock:
		m.ToggleLock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.performed = append(m.performed, a)
	switch a {
	case config.ActionPlayToggle, config.ActionMetronome, config.ActionSessionRecord,
		config.ActionArrangementRecord, config.ActionAutomationArm, config.ActionAutoArm,
		config.ActionBacklight:
		m.toggles[a] = !m.toggles[a]
		if a == config.ActionAutoArm {
			m.cfg.AutoArm = m.toggles[a]
		}
	case config.ActionSelectedTrackArm:
		if m.selected < len(m.tracks) {
			t := &m.tracks[m.selected]
			t.Arm = t.Armable && !t.Arm
		}
	}
	debug.Log("host", "perform %s", a)
}

func (m *Memory) ActionState(a config.Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch a {
	case config.ActionSelectedTrackArm:
		return m.selected < len(m.tracks) && m.tracks[m.selected].Arm
	case config.ActionDeviceLock:
		return m.locked
	}
	return m.toggles[a]
}

// Performed returns every action performed so far.
func (m *Memory) Performed() []config.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.Action(nil), m.performed...)
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
