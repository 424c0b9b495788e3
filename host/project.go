package host

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project describes an in-memory project on disk. Clip names are where
// per-project configuration markers live.
type Project struct {
	Name   string   `yaml:"name"`
	Tracks int      `yaml:"tracks"`
	Scenes int      `yaml:"scenes"`
	Clips  []string `yaml:"clips"`
}

// LoadProject reads a YAML project file into a Memory host. The project
// name defaults to the file name.
func LoadProject(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProject(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p.Memory(), nil
}

// ParseProject decodes a project, filling in the default size.
func ParseProject(data []byte) (Project, error) {
	p := Project{Tracks: 8, Scenes: 2}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Project{}, fmt.Errorf("project: %w", err)
	}
	if p.Tracks < 0 || p.Scenes < 0 {
		return Project{}, fmt.Errorf("project: negative size %dx%d", p.Tracks, p.Scenes)
	}
	return p, nil
}

// Memory builds the host.
func (p Project) Memory() *Memory {
	m := NewMemory(p.Name, p.Tracks, p.Scenes)
	m.SetClipNames(p.Clips...)
	return m
}
