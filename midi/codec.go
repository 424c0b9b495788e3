package midi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"modestep/gesture"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Codec encodes commands into wire messages. The LED, program and identity
// encodings are fixed by the hosted-mode MIDI map; display, standalone and
// backlight go through vendor sysex whose layout is supplied by the codec.
type Codec interface {
	IdentityRequest() gomidi.Message
	DisplayText(text string) []gomidi.Message
	LED(key gesture.Key, led LED) []gomidi.Message
	Program(program int) gomidi.Message
	Standalone(on bool) []gomidi.Message
	Backlight(on bool) []gomidi.Message
}

// Opcodes appended to SysexCodec.Header.
const (
	OpStandalone byte = 0x01
	OpBacklight  byte = 0x02
)

// SysexCodec is the default codec. Header is the vendor sysex prefix
// (without F0); commands are Header + opcode + value.
type SysexCodec struct {
	Header []byte
}

// ParseHeader reads space-separated hex bytes, e.g. "00 1b 48".
func ParseHeader(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.TrimPrefix(strings.ToLower(s), "f0")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("sysex header %q: %w", s, err)
	}
	for _, v := range b {
		if v > 0x7F {
			return nil, fmt.Errorf("sysex header byte %#x out of range", v)
		}
	}
	return b, nil
}

func (c SysexCodec) IdentityRequest() gomidi.Message {
	return gomidi.SysEx([]byte{0x7E, 0x7F, 0x06, 0x01})
}

// DisplayText sends one CC per character, padded to the display width.
func (c SysexCodec) DisplayText(text string) []gomidi.Message {
	text = PadText(text)
	msgs := make([]gomidi.Message, 0, DisplayWidth)
	for i := 0; i < DisplayWidth; i++ {
		msgs = append(msgs, gomidi.ControlChange(0, CCDisplayBase+uint8(i), text[i]&0x7F))
	}
	return msgs
}

func (c SysexCodec) LED(key gesture.Key, led LED) []gomidi.Message {
	k := uint8(key.Physical() - 1)
	var red, green uint8
	if led.Lit() {
		switch led.Color {
		case Red:
			red = uint8(led.Mode)
		case Green:
			green = uint8(led.Mode)
		case Yellow:
			red, green = uint8(led.Mode), uint8(led.Mode)
		}
	}
	return []gomidi.Message{
		gomidi.ControlChange(0, CCLEDGreenBase+k, green),
		gomidi.ControlChange(0, CCLEDRedBase+k, red),
	}
}

func (c SysexCodec) Program(program int) gomidi.Message {
	return gomidi.ProgramChange(0, uint8(program&0x7F))
}

func (c SysexCodec) Standalone(on bool) []gomidi.Message {
	return []gomidi.Message{c.command(OpStandalone, on)}
}

func (c SysexCodec) Backlight(on bool) []gomidi.Message {
	return []gomidi.Message{c.command(OpBacklight, on)}
}

func (c SysexCodec) command(op byte, on bool) gomidi.Message {
	data := append(append([]byte(nil), c.Header...), op, 0)
	if on {
		data[len(data)-1] = 1
	}
	return gomidi.SysEx(data)
}

// PadText truncates or space-pads text to the display width. Characters
// outside printable ASCII become spaces.
func PadText(text string) string {
	r := []rune(text)
	out := make([]byte, DisplayWidth)
	for i := range out {
		out[i] = ' '
		if i < len(r) && r[i] >= 0x20 && r[i] < 0x7F {
			out[i] = byte(r[i])
		}
	}
	return string(out)
}
