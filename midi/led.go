package midi

import "fmt"

// LEDMode values match the hosted-mode LED CC values.
type LEDMode uint8

const (
	LEDOff LEDMode = iota
	LEDOn
	LEDBlink
	LEDFastBlink
	LEDFlash
)

func (m LEDMode) String() string {
	switch m {
	case LEDOff:
		return "off"
	case LEDOn:
		return "on"
	case LEDBlink:
		return "blink"
	case LEDFastBlink:
		return "fast-blink"
	case LEDFlash:
		return "flash"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Color is one of the key LED colors. Yellow lights both elements.
type Color uint8

const (
	Green Color = iota
	Red
	Yellow
)

func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// LED is the state of one key's light. The zero value is off.
type LED struct {
	Mode  LEDMode
	Color Color
}

// Off is an unlit LED.
var Off = LED{}

// Lit reports whether the LED shows anything.
func (l LED) Lit() bool {
	return l.Mode != LEDOff
}

// Normalize maps every unlit LED to Off so that diffs ignore the color of
// dark keys.
func (l LED) Normalize() LED {
	if !l.Lit() {
		return Off
	}
	return l
}

func (l LED) String() string {
	if !l.Lit() {
		return "off"
	}
	return l.Color.String() + "-" + l.Mode.String()
}

// Convenience constructors, named after the colors they produce.
func GreenOn() LED        { return LED{LEDOn, Green} }
func GreenBlink() LED     { return LED{LEDBlink, Green} }
func GreenFastBlink() LED { return LED{LEDFastBlink, Green} }
func RedOn() LED          { return LED{LEDOn, Red} }
func RedBlink() LED       { return LED{LEDBlink, Red} }
func RedFastBlink() LED   { return LED{LEDFastBlink, Red} }
func YellowOn() LED       { return LED{LEDOn, Yellow} }
func YellowBlink() LED    { return LED{LEDBlink, Yellow} }
