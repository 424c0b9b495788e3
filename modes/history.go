package modes

// History is the two-entry quick-switch memory.
type History struct {
	Current  Mode
	Previous Mode
}

// NewHistory starts with current as the mode that the first entry will push
// into Previous.
func NewHistory(current Mode) History {
	return History{Current: current}
}

// Enter records a mode entry. Transient modes and re-entry of Current leave
// the history alone.
func (h *History) Enter(m Mode) bool {
	if IsTransient(m) || m == h.Current {
		return false
	}
	h.Previous, h.Current = h.Current, m
	return true
}

// Swap exchanges Current and Previous. It does nothing without a Previous.
func (h *History) Swap() {
	if h.Previous == "" {
		return
	}
	h.Previous, h.Current = h.Current, h.Previous
}
