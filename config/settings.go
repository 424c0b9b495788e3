package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ControllerSettings identifies which ports to open for the controller
type ControllerSettings struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
	// Hex bytes prepended to vendor sysex (display, standalone, backlight)
	SysexHeader string `json:"sysexHeader,omitempty"`
}

// MonitorSettings stores monitor preferences
type MonitorSettings struct {
	LastProject string `json:"lastProject,omitempty"`
	ShowHelp    bool   `json:"showHelp,omitempty"`
}

// Settings are the application settings, distinct from the per-session
// Configuration
type Settings struct {
	Controller     ControllerSettings `json:"controller"`
	UserConfigPath string             `json:"userConfigPath,omitempty"`
	LogPath        string             `json:"logPath,omitempty"`
	Monitor        MonitorSettings    `json:"monitor,omitempty"`
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		Controller: ControllerSettings{
			PortName:    "SoftStep",
			AutoConnect: true,
		},
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "modestep"), nil
}

// SettingsPath returns the full path to settings.json
func SettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// UserPath returns the user configuration path, honoring the settings override
func (s *Settings) UserPath() (string, error) {
	if s.UserConfigPath != "" {
		return s.UserConfigPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadSettings reads settings from disk, or returns defaults if not found
func LoadSettings() (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return DefaultSettings(), nil
	}
	return loadSettingsFrom(path)
}

func loadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the settings to disk
func (s *Settings) Save() error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	return s.saveTo(path)
}

func (s *Settings) saveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
