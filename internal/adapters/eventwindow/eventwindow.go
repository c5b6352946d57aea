// Package eventwindow implements ports.EventWindow with a static calendar
// of scheduled high-impact release windows (FOMC decisions, CPI, NFP, and
// similar), loaded from an optional YAML file and checked against wall
// clock time.
package eventwindow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Window is a single scheduled distortion window, inclusive of both ends.
type Window struct {
	Label string    `yaml:"label"`
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// contains reports whether t falls within w.
func (w Window) contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Calendar implements ports.EventWindow over a fixed set of windows.
type Calendar struct {
	windows []Window
}

// New constructs an empty Calendar. Use Add or Load to populate it.
func New() *Calendar {
	return &Calendar{}
}

// Add appends a scheduled distortion window.
func (c *Calendar) Add(w Window) {
	c.windows = append(c.windows, w)
}

// IsEventActive implements ports.EventWindow.
func (c *Calendar) IsEventActive(now time.Time) bool {
	for _, w := range c.windows {
		if w.contains(now) {
			return true
		}
	}
	return false
}

// Windows returns a copy of the loaded windows, for diagnostics.
func (c *Calendar) Windows() []Window {
	out := make([]Window, len(c.windows))
	copy(out, c.windows)
	return out
}

// calendarFile is the on-disk shape of a loaded calendar.
type calendarFile struct {
	Windows []Window `yaml:"windows"`
}

// Load reads a YAML calendar file and returns a populated Calendar. A
// missing file is not an error: it yields an empty calendar, since an
// economic calendar is an optional refinement the core treats as always
// inactive when absent.
func Load(path string) (*Calendar, error) {
	cal := New()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cal, nil
		}
		return nil, fmt.Errorf("eventwindow: read calendar file: %w", err)
	}
	var file calendarFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("eventwindow: parse calendar file: %w", err)
	}
	cal.windows = file.Windows
	return cal, nil
}
