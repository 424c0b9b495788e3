package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"modestep/gesture"
	"modestep/midi"
)

// portMatch is the substring used to find the controller
var portMatch = "softstep"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	if m := os.Getenv("SOFTSTEP_PORT"); m != "" {
		portMatch = m
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect()
	case "identity":
		identity()
	case "leds":
		testLEDs()
	case "text":
		if len(os.Args) < 3 {
			usage()
			return
		}
		testText(os.Args[2])
	case "standalone":
		if len(os.Args) < 3 {
			usage()
			return
		}
		testStandalone(os.Args[2])
	case "monitor":
		monitor()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("SoftStep Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list             - List all MIDI ports")
	fmt.Println("  detect           - Find the controller")
	fmt.Println("  identity         - Send an identity request and wait for the reply")
	fmt.Println("  leds             - Cycle every key through each LED color")
	fmt.Println("  text <str>       - Show text on the display")
	fmt.Println("  standalone <n>   - Load standalone program n (1-16), Enter to go back")
	fmt.Println("  monitor          - Print decoded inbound messages")
	fmt.Println("")
	fmt.Println("SOFTSTEP_PORT overrides the port name match.")
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ListPorts()
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	fmt.Println("Inputs:")
	for i, p := range ports.In {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\nOutputs:")
	for i, p := range ports.Out {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func findPorts() (drivers.In, drivers.Out, error) {
	ports, err := midi.ListPorts()
	if err != nil {
		return nil, nil, err
	}
	in, err := midi.FindInPort(ports.In, portMatch)
	if err != nil {
		return nil, nil, err
	}
	out, err := midi.FindOutPort(ports.Out, portMatch)
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

func detect() {
	fmt.Printf("Looking for %q...\n", portMatch)
	in, out, err := findPorts()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Found input: %s\n", in.String())
	fmt.Printf("Found output: %s\n", out.String())
}

// open connects to the controller with the default codec
func open() (*midi.SoftStepController, error) {
	in, out, err := findPorts()
	if err != nil {
		return nil, err
	}
	return midi.NewSoftStepController(in.String(), in, out, midi.SysexCodec{})
}

func identity() {
	ss, err := open()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer ss.Close()

	fmt.Println("Sending identity request...")
	if err := ss.IdentityQuery(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ss.Events():
			if ev.Kind == midi.IdentityReply {
				fmt.Printf("Reply: % X\n", ev.Data)
				return
			}
		case <-timeout:
			fmt.Println("No reply within 2s")
			return
		}
	}
}

func testLEDs() {
	ss, err := open()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer ss.Close()

	for _, led := range []midi.LED{midi.GreenOn(), midi.RedOn(), midi.YellowOn(), midi.GreenBlink()} {
		fmt.Printf("All keys %s...\n", led)
		for k := gesture.Key(0); k < gesture.NumKeys; k++ {
			ss.SetLED(k, led)
			time.Sleep(50 * time.Millisecond)
		}
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	for k := gesture.Key(0); k < gesture.NumKeys; k++ {
		ss.SetLED(k, midi.Off)
	}
	fmt.Println("Done!")
}

func testText(text string) {
	ss, err := open()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer ss.Close()
	if err := ss.SetDisplayText(text); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func testStandalone(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 16 {
		fmt.Println("program must be 1-16")
		return
	}
	ss, err := open()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer ss.Close()

	ss.EnterStandalone()
	ss.SendProgram(midi.StandaloneProgram{Program: n - 1})
	fmt.Printf("Standalone program %d. Press Enter to return to hosted mode...\n", n)
	fmt.Scanln()
	ss.ExitStandalone()
}

func monitor() {
	in, _, err := findPorts()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.String())

	var dec midi.Decoder
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		for _, ev := range dec.Decode(msg) {
			fmt.Printf("[%6d] %s\n", timestampms, ev)
		}
	}, gomidi.UseSysEx())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()
	select {}
}
