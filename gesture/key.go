// Package gesture turns raw key down/up signals into press, long-press and
// combo gestures.
package gesture

import "fmt"

// Key identifies one of the controller's keys. Keys 1-9 are the physical keys
// of the same number; key 0 is physical key 10, the mode key.
type Key int

const (
	ModeKey   Key = 0
	ActionKey Key = 5
	// ExitKey is the nav control that leaves standalone programs.
	ExitKey Key = 10
)

const (
	NumKeys = 10
	Rows    = 2
	Cols    = 5
)

// Physical returns the 1-based key number printed on the controller.
func (k Key) Physical() int {
	if k == ModeKey {
		return 10
	}
	return int(k)
}

// KeyFromPhysical is the inverse of Physical.
func KeyFromPhysical(n int) Key {
	if n == 10 {
		return ModeKey
	}
	return Key(n)
}

// Position returns the grid position. Row 0 is the top row (keys 6-9 and the
// mode key), row 1 the bottom row (keys 1-5).
func (k Key) Position() (row, col int) {
	p := k.Physical()
	if p <= Cols {
		return 1, p - 1
	}
	return 0, p - Cols - 1
}

// KeyAt returns the key at a grid position.
func KeyAt(row, col int) Key {
	if row == 1 {
		return Key(col + 1)
	}
	return KeyFromPhysical(col + Cols + 1)
}

// Valid reports whether k is a grid key.
func (k Key) Valid() bool {
	return k >= 0 && k < NumKeys
}

func (k Key) String() string {
	if k == ExitKey {
		return "exit"
	}
	return fmt.Sprintf("key%d", k.Physical())
}

// Adjacent reports whether a and b are distinct and touch on the grid,
// diagonals included.
func Adjacent(a, b Key) bool {
	if a == b || !a.Valid() || !b.Valid() {
		return false
	}
	ar, ac := a.Position()
	br, bc := b.Position()
	return abs(ar-br) <= 1 && abs(ac-bc) <= 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
