package executor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	exec := New(Options{})
	if exec == nil {
		t.Fatal("New() returned nil")
	}
	if exec.Elevator() != "" {
		t.Errorf("Elevator() = %q, want empty", exec.Elevator())
	}

	if got := New(Options{Elevate: "none"}).Elevator(); got != "" {
		t.Errorf("Elevator() for none = %q, want empty", got)
	}
}

func TestRunCapture(t *testing.T) {
	exec := New(Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := exec.RunCapture(ctx, "echo", "hello")
	if err != nil {
		t.Fatalf("RunCapture() error: %v", err)
	}

	if !strings.Contains(res.Stdout, "hello") {
		t.Errorf("Stdout = %s, want to contain 'hello'", res.Stdout)
	}
}

func TestRunFailing(t *testing.T) {
	exec := New(Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := exec.RunCapture(ctx, "false")
	if err == nil {
		t.Fatal("RunCapture() should return error for failing command")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("RunCapture() error should be a *CommandError, got %T", err)
	}
	if cmdErr.Name != "false" {
		t.Errorf("CommandError.Name = %q, want false", cmdErr.Name)
	}
}

func TestRunDryRun(t *testing.T) {
	var out, logs bytes.Buffer
	exec := New(Options{
		DryRun: true,
		Stdout: &out,
		Logger: log.New(&logs, "", 0),
	})

	// In dry-run mode, should return no error even for commands that would fail
	if _, err := exec.RunCapture(context.Background(), "false"); err != nil {
		t.Errorf("RunCapture() in dry-run mode should not error: %v", err)
	}
	if !strings.Contains(out.String(), "[dry-run] Would execute: false") {
		t.Errorf("dry-run output = %q", out.String())
	}
	if !strings.Contains(logs.String(), "[dry-run]") {
		t.Errorf("dry-run log = %q", logs.String())
	}
}

func TestRunElevatedCapturesOutput(t *testing.T) {
	var streamed bytes.Buffer
	exec := New(Options{Stdout: &streamed})

	res, err := exec.RunElevated(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("RunElevated() error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout = %q, want out", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q, want err", res.Stderr)
	}
	if strings.TrimSpace(streamed.String()) != "out" {
		t.Errorf("streamed stdout = %q, want out", streamed.String())
	}
}

func TestRunElevatedFailureKeepsStderr(t *testing.T) {
	exec := New(Options{})

	res, err := exec.RunElevated(context.Background(), "sh", "-c", "echo 'error: target not found: nope' >&2; exit 1")
	if err == nil {
		t.Fatal("RunElevated() should fail")
	}
	if !strings.Contains(res.Stderr, "target not found") {
		t.Errorf("Stderr = %q", res.Stderr)
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || !strings.Contains(cmdErr.Stderr, "target not found") {
		t.Errorf("CommandError should carry stderr, got %v", err)
	}
}

func TestCommand(t *testing.T) {
	exec := New(Options{})
	argv, err := exec.Command("pacman", "-S", "vim")
	if err != nil {
		t.Fatalf("Command() error: %v", err)
	}
	if !reflect.DeepEqual(argv, []string{"pacman", "-S", "vim"}) {
		t.Errorf("Command() = %v", argv)
	}

	if IsRoot() {
		t.Skip("elevation is skipped when running as root")
	}

	exec = New(Options{Elevate: "sh"})
	argv, err = exec.Command("pacman", "-S", "vim")
	if err != nil {
		t.Fatalf("Command() error: %v", err)
	}
	if !reflect.DeepEqual(argv, []string{"sh", "pacman", "-S", "vim"}) {
		t.Errorf("Command() = %v", argv)
	}

	exec = New(Options{Elevate: "archpm-missing-elevator"})
	if _, err := exec.Command("pacman"); !errors.Is(err, ErrNoPrivileges) {
		t.Errorf("Command() error = %v, want ErrNoPrivileges", err)
	}
}

func TestVerboseLogging(t *testing.T) {
	var logs bytes.Buffer
	exec := New(Options{Verbose: true, Logger: log.New(&logs, "", 0)})

	if _, err := exec.RunCapture(context.Background(), "true"); err != nil {
		t.Fatalf("RunCapture() error: %v", err)
	}
	if !strings.Contains(logs.String(), "Executing: true") {
		t.Errorf("verbose log = %q", logs.String())
	}
}

func TestContextCancellation(t *testing.T) {
	exec := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exec.RunCapture(ctx, "sleep", "10"); err == nil {
		t.Error("RunCapture() should error with cancelled context")
	}
}

func TestWithDryRun(t *testing.T) {
	var out bytes.Buffer
	exec := New(Options{Stdout: &out})

	dry := exec.WithDryRun(true)
	if dry == exec {
		t.Fatal("WithDryRun(true) should return a new executor")
	}
	if exec.DryRun() {
		t.Error("WithDryRun() must not change the original executor")
	}
	if exec.WithDryRun(false) != exec {
		t.Error("WithDryRun(false) should return the same executor")
	}

	res, err := dry.RunCapture(context.Background(), "false")
	if err != nil {
		t.Fatalf("RunCapture() in dry-run mode error: %v", err)
	}
	if res.Stdout != "" {
		t.Errorf("dry-run result should be empty, got %q", res.Stdout)
	}
	if !strings.Contains(out.String(), "Would execute: false") {
		t.Errorf("dry-run output = %q", out.String())
	}
}
