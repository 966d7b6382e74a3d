package bridge

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrEmptyName is returned when a package name is required but empty.
	ErrEmptyName = errors.New("empty package name provided")

	// ErrInvalidName is returned for names pacman would not accept.
	ErrInvalidName = errors.New("invalid package name")

	// ErrNoInstalled is returned when the local database has no packages.
	ErrNoInstalled = errors.New("no installed packages found")

	// ErrBusy is returned when a transaction for the package is already pending.
	ErrBusy = errors.New("a transaction for this package is already in progress")

	// ErrNoManager is returned when no manager can handle the package.
	ErrNoManager = errors.New("no package manager available")
)

// Package names: alphanumerics and @._+-, not starting with a hyphen or dot.
var validName = regexp.MustCompile(`^[a-zA-Z0-9@_+][a-zA-Z0-9@._+-]*$`)

// ValidateName rejects names that are empty or could be taken for options
// or shell syntax.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
