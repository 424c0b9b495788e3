package midi

import (
	"bytes"
	"testing"

	"modestep/gesture"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func kinds(events []Event) []EventKind {
	var ks []EventKind
	for _, e := range events {
		ks = append(ks, e.Kind)
	}
	return ks
}

func TestKeyCCLayout(t *testing.T) {
	tests := []struct {
		key  gesture.Key
		dir  int
		want uint8
	}{
		{6, 0, 40},               // top left
		{1, 0, 44},               // bottom left
		{7, 0, 48},               // second column top
		{gesture.ModeKey, 3, 75}, // top right, down corner
		{5, 3, 79},
	}
	for _, tt := range tests {
		if got := KeyCC(tt.key, tt.dir); got != tt.want {
			t.Errorf("KeyCC(%v, %d) = %d, want %d", tt.key, tt.dir, got, tt.want)
		}
	}
}

func TestDecodeKeyDownUp(t *testing.T) {
	var d Decoder
	cc := KeyCC(3, 1)

	evs := d.Decode(gomidi.ControlChange(0, cc, 20))
	if len(evs) != 2 || evs[1].Kind != KeyDown || evs[1].Key != 3 {
		t.Fatalf("got %v", evs)
	}
	if evs[0].Kind != KeyPressure || evs[0].Value != 20 {
		t.Errorf("pressure %v", evs[0])
	}

	// Another corner keeps the key down.
	evs = d.Decode(gomidi.ControlChange(0, KeyCC(3, 2), 5))
	if len(evs) != 1 || evs[0].Kind != KeyPressure {
		t.Errorf("second corner: %v", kinds(evs))
	}
	evs = d.Decode(gomidi.ControlChange(0, cc, 0))
	if len(evs) != 1 {
		t.Errorf("one corner released: %v", kinds(evs))
	}
	evs = d.Decode(gomidi.ControlChange(0, KeyCC(3, 2), 0))
	if len(evs) != 2 || evs[1].Kind != KeyUp {
		t.Errorf("all released: %v", kinds(evs))
	}
}

func TestDecodeExitControl(t *testing.T) {
	var d Decoder
	evs := d.Decode(gomidi.ControlChange(0, CCExit, 127))
	if len(evs) != 2 || evs[1].Kind != KeyDown || evs[1].Key != gesture.ExitKey {
		t.Fatalf("got %v", evs)
	}
	evs = d.Decode(gomidi.ControlChange(0, CCExit, 0))
	if len(evs) != 1 || evs[0].Kind != KeyUp || evs[0].Key != gesture.ExitKey {
		t.Fatalf("got %v", evs)
	}
}

func TestDecodeNavPad(t *testing.T) {
	var d Decoder
	for i, dir := range []gesture.Direction{gesture.Left, gesture.Right, gesture.Up, gesture.Down} {
		cc := CCNavFirst + uint8(i)
		evs := d.Decode(gomidi.ControlChange(0, cc, 40))
		if len(evs) == 0 || evs[0].Kind != Nav || evs[0].Dir != dir {
			t.Fatalf("cc %d: got %v", cc, evs)
		}
		if evs := d.Decode(gomidi.ControlChange(0, cc, 90)); len(evs) != 0 {
			t.Errorf("cc %d: more pressure repeated the press: %v", cc, evs)
		}
		d.Decode(gomidi.ControlChange(0, cc, 0))
	}
}

func TestDecodeIdentityAndProgram(t *testing.T) {
	var d Decoder
	evs := d.Decode(gomidi.SysEx([]byte{0x7E, 0x00, 0x06, 0x02, 0x00, 0x01, 0x5F}))
	if len(evs) != 1 || evs[0].Kind != IdentityReply {
		t.Fatalf("identity: %v", evs)
	}
	if evs := d.Decode(gomidi.SysEx([]byte{0x7E, 0x7F, 0x06, 0x01})); len(evs) != 0 {
		t.Errorf("identity request decoded as %v", evs)
	}
	evs = d.Decode(gomidi.ProgramChange(0, 12))
	if len(evs) != 1 || evs[0].Kind != ProgramChange || evs[0].Value != 12 {
		t.Errorf("program: %v", evs)
	}
	evs = d.Decode(gomidi.ControlChange(0, CCExpression, 64))
	if len(evs) != 1 || evs[0].Kind != Expression || evs[0].Value != 64 {
		t.Errorf("expression: %v", evs)
	}
}

func TestCodecLED(t *testing.T) {
	c := SysexCodec{}
	var ch, cc, val uint8

	msgs := c.LED(gesture.ModeKey, RedFastBlink())
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	msgs[0].GetControlChange(&ch, &cc, &val)
	if cc != CCLEDGreenBase+9 || val != 0 {
		t.Errorf("green: cc=%d val=%d", cc, val)
	}
	msgs[1].GetControlChange(&ch, &cc, &val)
	if cc != CCLEDRedBase+9 || val != uint8(LEDFastBlink) {
		t.Errorf("red: cc=%d val=%d", cc, val)
	}

	msgs = c.LED(1, YellowOn())
	msgs[0].GetControlChange(&ch, &cc, &val)
	if cc != CCLEDGreenBase || val != 1 {
		t.Errorf("yellow green: cc=%d val=%d", cc, val)
	}
}

func TestCodecDisplayPads(t *testing.T) {
	msgs := SysexCodec{}.DisplayText("Up")
	if len(msgs) != DisplayWidth {
		t.Fatalf("got %d messages", len(msgs))
	}
	var ch, cc, val uint8
	msgs[3].GetControlChange(&ch, &cc, &val)
	if cc != CCDisplayBase+3 || val != ' ' {
		t.Errorf("cc=%d val=%q", cc, val)
	}
}

func TestCodecVendorCommands(t *testing.T) {
	header, err := ParseHeader("F0 00 1B 48")
	if err != nil {
		t.Fatal(err)
	}
	c := SysexCodec{Header: header}
	var data []byte
	if !c.Standalone(true)[0].GetSysEx(&data) {
		t.Fatal("not sysex")
	}
	if want := []byte{0x00, 0x1B, 0x48, OpStandalone, 1}; !bytes.Equal(data, want) {
		t.Errorf("got % X, want % X", data, want)
	}
	if _, err := ParseHeader("00 ff"); err == nil {
		t.Error("accepted a data byte above 0x7F")
	}
}

func TestRecorderTracksDisplay(t *testing.T) {
	r := NewRecorder()
	r.SetDisplayText("Trns")
	r.SetLED(3, GreenOn())
	r.SetLED(3, LED{Mode: LEDOff, Color: Red})
	text, leds := r.Display()
	if text != "Trns" || leds[3] != Off {
		t.Errorf("got %q %v", text, leds[3])
	}
	if r.Count(SentLED) != 2 {
		t.Errorf("count %d", r.Count(SentLED))
	}
}

func TestDecodeEchoAndTilt(t *testing.T) {
	var d Decoder
	evs := d.Decode(gomidi.ControlChange(0, CCLEDGreenBase+2, 1))
	if len(evs) != 1 || evs[0].Kind != Unrecognized || evs[0].Value != int(CCLEDGreenBase+2) {
		t.Errorf("echo: %v", evs)
	}

	evs = d.Decode(gomidi.ControlChange(0, KeyCC(7, 0), 30)) // up corner
	if evs[0].Kind != KeyPressure || evs[0].Y != 30 || evs[0].X != 0 {
		t.Errorf("tilt up: %+v", evs[0])
	}
	evs = d.Decode(gomidi.ControlChange(0, KeyCC(7, 3), 50)) // down corner
	if evs[0].Y != -20 {
		t.Errorf("tilt down: %+v", evs[0])
	}
}
