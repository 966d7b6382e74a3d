// Package executor handles command execution with privilege escalation support.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

// Options configures an Executor.
type Options struct {
	// Elevate is the program used to gain root (pkexec, sudo, doas).
	// Empty or "none" runs elevated commands as the current user.
	Elevate string

	DryRun  bool
	Verbose bool

	// Logger receives verbose and dry-run messages. Nil discards them.
	Logger *log.Logger

	// Stdout and Stderr receive a live copy of command output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the captured output of a command.
type Result struct {
	Stdout string
	Stderr string
}

// Executor handles command execution with optional elevation. Its settings
// are fixed at construction; WithDryRun derives a copy.
type Executor struct {
	elevate string
	dryRun  bool
	verbose bool
	logger  *log.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a new Executor with the given options.
func New(opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	elevate := strings.TrimSpace(opts.Elevate)
	if elevate == "none" {
		elevate = ""
	}

	return &Executor{
		elevate: elevate,
		dryRun:  opts.DryRun,
		verbose: opts.Verbose,
		logger:  logger,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// DryRun reports whether dry-run mode is enabled.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// WithDryRun returns an executor sharing this one's settings with dry-run
// forced to dryRun. It returns e itself when nothing changes.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	if e.dryRun == dryRun {
		return e
	}

	return &Executor{
		elevate: e.elevate,
		dryRun:  dryRun,
		verbose: e.verbose,
		logger:  e.logger,
		stdout:  e.stdout,
		stderr:  e.stderr,
	}
}

// Elevator returns the configured elevation program, or "" when none is used.
func (e *Executor) Elevator() string {
	return e.elevate
}

// RunCapture executes a command without elevation, streaming its output to
// the configured writers and capturing it.
func (e *Executor) RunCapture(ctx context.Context, name string, args ...string) (Result, error) {
	return e.run(ctx, false, name, args)
}

// RunElevated executes a command as root using the elevation program unless
// already root. Output is streamed to the configured writers and captured.
func (e *Executor) RunElevated(ctx context.Context, name string, args ...string) (Result, error) {
	return e.run(ctx, true, name, args)
}

// Command returns the argv that RunElevated would execute.
func (e *Executor) Command(name string, args ...string) ([]string, error) {
	if isRoot() || e.elevate == "" {
		return append([]string{name}, args...), nil
	}
	if !hasProgram(e.elevate) {
		return nil, ErrNoPrivileges
	}
	return append([]string{e.elevate, name}, args...), nil
}

func (e *Executor) run(ctx context.Context, elevated bool, name string, args []string) (Result, error) {
	argv := append([]string{name}, args...)
	if elevated {
		var err error
		argv, err = e.Command(name, args...)
		if err != nil {
			return Result{}, err
		}
	}

	if e.dryRun {
		e.logger.Printf("[dry-run] Would execute: %s", strings.Join(argv, " "))
		fmt.Fprintf(e.stdout, "[dry-run] Would execute: %s\n", strings.Join(argv, " "))
		return Result{}, nil
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(e.stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(e.stderr, &stderrBuf)

	e.logCommand("Executing", argv[0], argv[1:])

	err := cmd.Run()
	res := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if err != nil {
		return res, commandError(argv[0], err, res.Stderr)
	}
	return res, nil
}

func (e *Executor) logCommand(prefix, name string, args []string) {
	if e.verbose {
		e.logger.Printf("%s: %s %s", prefix, name, strings.Join(args, " "))
	}
}

// CommandError describes a command that exited unsuccessfully.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(name string, err error, stderr string) error {
	return &CommandError{Name: name, Stderr: stderr, Err: err}
}
