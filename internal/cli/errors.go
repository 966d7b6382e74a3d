package cli

import "errors"

var (
	// ErrPackageNotFound is returned when a package is in no repository and not in the AUR.
	ErrPackageNotFound = errors.New("package not found")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")
)
