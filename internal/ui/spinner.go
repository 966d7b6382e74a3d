package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner wraps the spinner library for consistent styling.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner on stderr so listings on stdout stay clean.
func NewSpinner(message string) *Spinner {
	charSet := spinner.CharSets[14] // ⣾⣽⣻⢿⡿⣟⣯⣷
	if !UseUnicode {
		charSet = spinner.CharSets[9] // |/-\
	}

	s := spinner.New(charSet, 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	if UseColors {
		_ = s.Color("cyan")
	}

	return &Spinner{s: s}
}

// Start starts the spinner.
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop stops the spinner.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// Success stops the spinner with a success message.
func (sp *Spinner) Success(message string) {
	sp.s.Stop()
	SuccessMsg("%s", message)
}

// Error stops the spinner with an error message.
func (sp *Spinner) Error(message string) {
	sp.s.Stop()
	ErrorMsg("%s", message)
}

// UpdateMessage updates the spinner message.
func (sp *Spinner) UpdateMessage(message string) {
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}

// WithSpinner runs fn while a spinner shows message. The spinner is cleared
// without a status line; callers report the outcome.
func WithSpinner(message string, fn func() error) error {
	sp := NewSpinner(message)
	sp.Start()
	defer sp.Stop()
	return fn()
}
