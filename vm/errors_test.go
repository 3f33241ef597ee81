package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := runtimeErr(CodeSubsetMismatch, "no property %q", "c")
	if !errors.Is(err, ErrSubsetMismatch) {
		t.Error("errors.Is should match the sentinel of the same code")
	}
	if errors.Is(err, ErrNoSuchProperty) {
		t.Error("errors.Is should not match a different code")
	}

	wrapped := fmt.Errorf("assigning x: %w", err)
	if CodeOf(wrapped) != CodeSubsetMismatch {
		t.Errorf("CodeOf(wrapped) = %s", CodeOf(wrapped))
	}
	if p, ok := PhaseOf(wrapped); !ok || p != Runtime {
		t.Errorf("PhaseOf(wrapped) = %s, %v", p, ok)
	}
	if CodeOf(errors.New("plain")) != 0 {
		t.Error("CodeOf(plain error) should be 0")
	}
}

func TestErrorString(t *testing.T) {
	err := compileErr(CodeDuplicateName, "property %q declared twice", "a")
	msg := err.Error()
	for _, want := range []string{"compile-time", "DuplicateName", `"a"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
