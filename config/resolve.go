package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"modestep/debug"
)

// ErrInvalidOverride wraps every per-project override failure.
var ErrInvalidOverride = errors.New("invalid project override")

// Markers introducing a per-project override in project metadata.
const (
	ReplaceMarker = "ms="
	MergeMarker   = "ms<"
)

// OverrideKind selects how a per-project payload combines with lower layers.
type OverrideKind int

const (
	// Replace starts from the defaults, discarding the user layer.
	Replace OverrideKind = iota
	// Merge overlays only the given fields.
	Merge
)

func (k OverrideKind) String() string {
	if k == Replace {
		return "replace"
	}
	return "merge"
}

// ProjectOverride is one marker found in project metadata.
type ProjectOverride struct {
	Kind    OverrideKind
	Payload string
}

// FindOverrides scans metadata strings in order and returns every marker.
func FindOverrides(metadata []string) []ProjectOverride {
	var found []ProjectOverride
	for _, s := range metadata {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, ReplaceMarker):
			found = append(found, ProjectOverride{Kind: Replace, Payload: s[len(ReplaceMarker):]})
		case strings.HasPrefix(s, MergeMarker):
			found = append(found, ProjectOverride{Kind: Merge, Payload: s[len(MergeMarker):]})
		}
	}
	return found
}

// Apply combines o with current. Replace overlays the payload on the
// defaults; Merge overlays it on current. Top-level fields are replaced
// wholesale; there is no deep merge of maps.
func Apply(current Configuration, o ProjectOverride) (Configuration, error) {
	base := current
	if o.Kind == Replace {
		base = Default()
	}
	cfg, err := overlay(base, []byte(o.Payload))
	if err != nil {
		return current, fmt.Errorf("%w (%s): %v", ErrInvalidOverride, o.Kind, err)
	}
	if err := cfg.Validate(); err != nil {
		return current, fmt.Errorf("%w (%s): %v", ErrInvalidOverride, o.Kind, err)
	}
	return cfg, nil
}

// Resolve produces the effective configuration from the user layer and the
// project's metadata. Invalid markers are logged and skipped.
func Resolve(user Configuration, metadata []string) Configuration {
	cfg := user
	for _, o := range FindOverrides(metadata) {
		next, err := Apply(cfg, o)
		if err != nil {
			debug.Warn("config", "ignoring project override: %v", err)
			continue
		}
		debug.Log("config", "applied %s project override", o.Kind)
		cfg = next
	}
	return cfg
}

func overlay(base Configuration, payload []byte) (Configuration, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return base, err
	}
	if fields == nil {
		return base, errors.New("payload is not an object")
	}

	encoded, err := json.Marshal(base)
	if err != nil {
		return base, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &merged); err != nil {
		return base, err
	}
	for k, v := range fields {
		if _, ok := merged[k]; !ok {
			return base, fmt.Errorf("unknown field %q", k)
		}
		merged[k] = v
	}

	combined, err := json.Marshal(merged)
	if err != nil {
		return base, err
	}
	var cfg Configuration
	dec := json.NewDecoder(bytes.NewReader(combined))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return base, err
	}
	return cfg, nil
}
