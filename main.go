package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"modestep/config"
	"modestep/debug"
	"modestep/host"
	"modestep/midi"
	"modestep/sched"
	"modestep/session"
	"modestep/theme"
	"modestep/tui"
)

var flags struct {
	port     string
	config   string
	project  string
	palette  string
	logPath  string
	debug    bool
	headless bool
	virtual  bool
}

var rootCmd = &cobra.Command{
	Use:   "modestep",
	Short: "Mode-based mediator between a SoftStep foot controller and a performance host",
	Long: `modestep turns footswitch presses into mode-dependent actions: transport,
track controls, device parameters, and switching to the controller's own
standalone presets and back.

The controller is detected automatically and may be unplugged and replugged
at any time.`,
	SilenceUsage: true,
	RunE:         run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mediator (the default when no command is given)",
	RunE:  run,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.ListPorts()
		if err != nil {
			// User needs to run: sudo killall coreaudiod midiserver
			return err
		}
		fmt.Println("inputs:")
		for i, p := range ports.In {
			fmt.Printf("  %d: %s\n", i, p)
		}
		fmt.Println("outputs:")
		for i, p := range ports.Out {
			fmt.Printf("  %d: %s\n", i, p)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()
		user := loadUser(settings)
		h, err := openProject(settings)
		if err != nil {
			return err
		}
		cfg := config.Resolve(user, h.ClipNames())
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "",
		"User configuration file (default ~/.config/modestep/config.yaml)")
	pf.StringVarP(&flags.project, "project", "p", "",
		"Project file whose clip names may carry ms= / ms< overrides")
	pf.StringVarP(&flags.logPath, "log", "l", "",
		"Write debug logs to this file")
	pf.BoolVarP(&flags.debug, "debug", "d", false,
		"Enable debug logging (to --log or the default log file)")

	addRunFlags(rootCmd)
	addRunFlags(runCmd)

	rootCmd.AddCommand(runCmd, portsCmd, configCmd)
}

// addRunFlags registers the session flags on both the root command and
// its explicit run alias.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flags.port, "port", "",
		"Substring of the controller's MIDI port name (default from settings)")
	f.StringVar(&flags.palette, "palette", "",
		"GIMP palette file for the monitor")
	f.BoolVar(&flags.headless, "headless", false,
		"Run without the monitor, logging to stderr")
	f.BoolVar(&flags.virtual, "virtual", false,
		"Use a simulated controller driven from the monitor")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	settings := loadSettings()
	if flags.headless && !flags.debug {
		debug.EnableWriter(os.Stderr)
	}

	user := loadUser(settings)
	h, err := openProject(settings)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The loop and device manager outlive ctx so the goodbye can still go out.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := sched.NewLoop(256)
	s := session.New(user, h, loop)
	go loop.Run(loopCtx)
	defer s.Close(time.Second)

	var virtual *midi.Virtual
	if flags.virtual {
		virtual = midi.NewVirtual("virtual")
		s.Attach(virtual)
	} else {
		port := settings.Controller.PortName
		if flags.port != "" {
			port = flags.port
		}
		header, err := midi.ParseHeader(settings.Controller.SysexHeader)
		if err != nil {
			return err
		}
		dm := midi.NewDeviceManager(port, midi.SysexCodec{Header: header})
		go dm.Run(loopCtx)
		go s.Watch(dm)
	}

	if flags.headless {
		debug.Info("main", "running headless, session %s", s.Snapshot().ID)
		<-ctx.Done()
		return nil
	}

	var palette *theme.Palette
	if flags.palette != "" {
		if palette, err = theme.LoadGPL(flags.palette); err != nil {
			return err
		}
	}
	m := tui.NewModel(s, virtual, theme.New(palette))
	if flags.project != "" || settings.Monitor.LastProject != "" {
		m.Reopen = func() (host.Host, error) { return openProject(settings) }
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func loadSettings() *config.Settings {
	if flags.debug {
		path := flags.logPath
		if err := debug.Enable(path); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
	}
	settings, err := config.LoadSettings()
	if err != nil {
		debug.Warn("main", "settings: %v, using defaults", err)
		settings = config.DefaultSettings()
	}
	return settings
}

// loadUser falls back to the defaults when the user file is unusable.
func loadUser(settings *config.Settings) config.Configuration {
	path := flags.config
	if path == "" {
		var err error
		if path, err = settings.UserPath(); err != nil {
			debug.Warn("main", "user config: %v", err)
			return config.Default()
		}
	}
	cfg, err := config.LoadUser(path)
	if err != nil {
		debug.Warn("main", "%v, using defaults", err)
		return config.Default()
	}
	debug.Info("main", "user config %s", path)
	return cfg
}

// openProject loads --project, or the last project opened. Without either
// the session runs on an empty in-memory project.
func openProject(settings *config.Settings) (host.Host, error) {
	path := flags.project
	if path == "" {
		path = settings.Monitor.LastProject
	}
	if path == "" {
		return host.NewMemory("untitled", 8, 2), nil
	}
	h, err := host.LoadProject(path)
	if err != nil {
		return nil, err
	}
	if flags.project != "" && settings.Monitor.LastProject != flags.project {
		settings.Monitor.LastProject = flags.project
		if err := settings.Save(); err != nil {
			debug.Warn("main", "save settings: %v", err)
		}
	}
	return h, nil
}
