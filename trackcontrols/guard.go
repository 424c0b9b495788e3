package trackcontrols

import (
	"modestep/config"
	"modestep/gesture"
)

// Guard applies a key safety strategy to selection-style controls. Every key
// down is offered to the guard; a key is only tracked as held once the guard
// has accepted it, and only held keys may change a selection.
type Guard struct {
	strategy config.KeySafetyStrategy
	held     map[gesture.Key]bool
}

// NewGuard returns a guard for strategy.
func NewGuard(strategy config.KeySafetyStrategy) *Guard {
	return &Guard{strategy: strategy, held: make(map[gesture.Key]bool)}
}

// Acquire is called on key down. It reports whether the key may change the
// selection.
func (g *Guard) Acquire(k gesture.Key) bool {
	switch g.strategy {
	case config.SingleKey:
		for h := range g.held {
			if h != k {
				return false
			}
		}
	case config.AdjacentLockout:
		for h := range g.held {
			if gesture.Adjacent(h, k) {
				return false
			}
		}
	}
	g.held[k] = true
	return true
}

// Holds reports whether k was accepted and is still down.
func (g *Guard) Holds(k gesture.Key) bool {
	return g.held[k]
}

// Release is called on key up.
func (g *Guard) Release(k gesture.Key) {
	delete(g.held, k)
}

// Reset forgets all held keys.
func (g *Guard) Reset() {
	clear(g.held)
}

func (g *Guard) Strategy() config.KeySafetyStrategy {
	return g.strategy
}

// SetStrategy changes the strategy for later key downs. Keys already held
// stay held.
func (g *Guard) SetStrategy(s config.KeySafetyStrategy) {
	g.strategy = s
}
