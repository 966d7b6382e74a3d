package executor

import (
	"errors"
	"os"
	"testing"
)

func TestIsRoot(t *testing.T) {
	result := IsRoot()

	if os.Geteuid() != 0 && result {
		t.Error("IsRoot() should return false when not running as root")
	}

	if os.Geteuid() == 0 && !result {
		t.Error("IsRoot() should return true when running as root")
	}
}

func TestHasProgram(t *testing.T) {
	if !HasProgram("sh") {
		t.Error("HasProgram(sh) should be true")
	}
	if HasProgram("archpm-missing-elevator") {
		t.Error("HasProgram() should be false for a missing program")
	}
}

func TestCanElevate(t *testing.T) {
	if IsRoot() {
		if !CanElevate("") {
			t.Error("CanElevate() should return true when running as root")
		}
		return
	}

	if CanElevate("") {
		t.Error("CanElevate(\"\") should be false when not root")
	}
	if CanElevate("archpm-missing-elevator") {
		t.Error("CanElevate() should be false for a missing program")
	}
	if !CanElevate("sh") {
		t.Error("CanElevate() should be true for an installed program")
	}
}

func TestCheckPrivileges(t *testing.T) {
	if err := CheckPrivileges("", false); err != nil {
		t.Errorf("CheckPrivileges(false) should return nil: %v", err)
	}

	if IsRoot() {
		t.Skip("running as root")
	}

	err := CheckPrivileges("archpm-missing-elevator", true)
	if !errors.Is(err, ErrNoPrivileges) {
		t.Errorf("CheckPrivileges() = %v, want ErrNoPrivileges", err)
	}
}
