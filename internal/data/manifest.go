package data

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	ErrUndefinedProcedure = errors.New("manifest: procedure not defined by any script")
	ErrBadTimer           = errors.New("manifest: bad timer entry")
	ErrEntryNotListed     = errors.New("manifest: entry is not in procedures")
)

// TimerEntry schedules a global script function at boot.
type TimerEntry struct {
	Func     string  `yaml:"func"`
	Delay    float64 `yaml:"delay"`
	Loop     bool    `yaml:"loop"`
	Unscaled bool    `yaml:"unscaled"`
}

// Manifest is bootstrap.yaml: which procedure to start and what to schedule.
// An empty Procedures list enables every procedure the scripts define.
type Manifest struct {
	Entry      string       `yaml:"entry"`
	Procedures []string     `yaml:"procedures"`
	Timers     []TimerEntry `yaml:"timers"`
}

// LoadManifest loads bootstrap.yaml. A missing file yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Enabled reports whether the procedure called name should be handed to the
// procedure driver.
func (m *Manifest) Enabled(name string) bool {
	return len(m.Procedures) == 0 || slices.Contains(m.Procedures, name)
}

// Validate checks the manifest against the procedure names scripts defined.
// Every problem is reported, joined.
func (m *Manifest) Validate(known []string) error {
	var errs []error
	if m.Entry != "" && !slices.Contains(known, m.Entry) {
		errs = append(errs, fmt.Errorf("%w: entry %q", ErrUndefinedProcedure, m.Entry))
	}
	if m.Entry != "" && !m.Enabled(m.Entry) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrEntryNotListed, m.Entry))
	}
	for _, name := range m.Procedures {
		if !slices.Contains(known, name) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUndefinedProcedure, name))
		}
	}
	for i, t := range m.Timers {
		switch {
		case t.Func == "":
			errs = append(errs, fmt.Errorf("%w: #%d has no func", ErrBadTimer, i))
		case t.Delay < 0:
			errs = append(errs, fmt.Errorf("%w: %s has negative delay", ErrBadTimer, t.Func))
		}
	}
	return errors.Join(errs...)
}
