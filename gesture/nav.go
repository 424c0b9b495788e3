package gesture

// Direction is one of the nav pad's four sensors, in CC order.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "unknown"
}

// Vertical reports whether d is on the up/down axis.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// Step is -1 for left and down, +1 for right and up.
func (d Direction) Step() int {
	if d == Left || d == Down {
		return -1
	}
	return 1
}
