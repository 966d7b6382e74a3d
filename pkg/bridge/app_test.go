package bridge

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

type countingCloser struct {
	closed int
	err    error
}

func (c *countingCloser) Close() error {
	c.closed++
	return c.err
}

func TestShutdownClosesResources(t *testing.T) {
	a := &countingCloser{}
	b := &countingCloser{err: errBoom}
	app := New(Options{Database: &fakeDB{}, Closers: []io.Closer{a, b}})

	app.Shutdown(context.Background())
	app.Shutdown(context.Background())

	if a.closed != 1 || b.closed != 1 {
		t.Errorf("closed = %d, %d; want 1, 1", a.closed, b.closed)
	}
}

func TestStartupContextCancelsQueries(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.app.Startup(ctx)
	cancel()

	if _, err := f.app.GetMultiplePackageInfo([]string{"firefox"}); !errors.Is(err, context.Canceled) {
		t.Errorf("GetMultiplePackageInfo() error = %v, want context.Canceled", err)
	}
}

func TestHasAUR(t *testing.T) {
	f := newFixture()
	if !f.app.HasAUR() {
		t.Error("HasAUR() = false with a remote configured")
	}
	if New(Options{Database: &fakeDB{}}).HasAUR() {
		t.Error("HasAUR() = true without a remote")
	}
}

func TestWaitForState(t *testing.T) {
	f := newFixture()

	if err := f.app.WaitForState(context.Background(), "bash", true, time.Millisecond); err != nil {
		t.Errorf("WaitForState(bash, installed) error = %v", err)
	}
	if err := f.app.WaitForState(context.Background(), "firefox", false, time.Millisecond); err != nil {
		t.Errorf("WaitForState(firefox, removed) error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.app.WaitForState(ctx, "firefox", true, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForState() error = %v, want DeadlineExceeded", err)
	}

	if err := f.app.WaitForState(ctx, "-x", true, 0); !errors.Is(err, ErrInvalidName) {
		t.Errorf("WaitForState(-x) error = %v, want ErrInvalidName", err)
	}
}
