package midi

import (
	"fmt"

	"modestep/gesture"
)

// StandaloneProgram is an onboard preset. Background marks the preset loaded
// while hosted so its LEDs don't fight the host's.
type StandaloneProgram struct {
	Program    int
	Background bool
}

func (p StandaloneProgram) String() string {
	if p.Background {
		return fmt.Sprintf("program %d (background)", p.Program)
	}
	return fmt.Sprintf("program %d", p.Program)
}

// Output is the set of commands the controller understands. Sends are
// fire-and-forget; errors only report local transport failures.
type Output interface {
	IdentityQuery() error
	SetDisplayText(text string) error
	SetLED(key gesture.Key, led LED) error
	SendProgram(p StandaloneProgram) error
	EnterStandalone() error
	ExitStandalone() error
	SetBacklight(on bool) error
}

// Controller is a connected foot controller.
type Controller interface {
	Output

	ID() string

	// Inbound decoded messages
	Events() <-chan Event

	// Lifecycle
	Close() error
}
