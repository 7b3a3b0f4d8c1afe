package graph

import (
	"fmt"
	"sync"
)

// Warning records a non-fatal condition found while building the graph,
// such as a dependency that could not be repaired to a known unit.
type Warning struct {
	Stage   string `json:"stage"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Stage, w.Subject, w.Detail)
}

// Diagnostics collects Warnings from the pipeline stages. Safe for
// concurrent use.
type Diagnostics struct {
	mu       sync.Mutex
	warnings []Warning
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) Warn(stage, subject, format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = append(d.warnings, Warning{
		Stage:   stage,
		Subject: subject,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// All returns a copy of the collected warnings in insertion order.
func (d *Diagnostics) All() []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.warnings)
}
