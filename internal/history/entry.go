// Package history provides operation history tracking with BoltDB.
package history

import (
	"strings"
	"time"
)

// Operation represents the type of package operation.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpUpdate    Operation = "update"
	OpUpgrade   Operation = "upgrade"
)

// Entry represents a single transaction in the history.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Operation Operation `json:"operation" yaml:"operation"`
	Source    string    `json:"source" yaml:"source"`     // Manager used (pacman, yay, ...)
	Packages  []string  `json:"packages" yaml:"packages"` // Packages affected; empty for a full upgrade
	Success   bool      `json:"success" yaml:"success"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// NewEntry creates a new history entry.
func NewEntry(op Operation, source string, packages []string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Source:    source,
		Packages:  packages,
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
	e.Error = ""
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

// Finish marks the entry according to err.
func (e *Entry) Finish(err error) {
	if err != nil {
		e.MarkFailed(err)
		return
	}
	e.MarkSuccess()
}

// Involves reports whether the entry touched the named package. Full
// upgrades involve every package.
func (e *Entry) Involves(name string) bool {
	if len(e.Packages) == 0 {
		return e.Operation == OpUpgrade
	}
	for _, pkg := range e.Packages {
		if pkg == name {
			return true
		}
	}
	return false
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Status returns "success" or "failed".
func (e *Entry) Status() string {
	if e.Success {
		return "success"
	}
	return "failed"
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	var b strings.Builder
	b.WriteString(e.FormatTime())
	b.WriteString(" ")
	b.WriteString(string(e.Operation))

	if len(e.Packages) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Packages, ", "))
	}
	if e.Source != "" {
		b.WriteString(" [" + e.Source + "]")
	}
	if e.DryRun {
		b.WriteString(" (dry-run)")
	}

	b.WriteString(" (" + e.Status() + ")")
	return b.String()
}
