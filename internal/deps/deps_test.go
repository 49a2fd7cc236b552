package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckAll(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "present")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	got := CheckAll(
		Binary{Name: "Present", Command: stub},
		Binary{Name: "Missing", Command: "clearly-not-present-binary"},
		Binary{Name: "Unset", Command: "  ", Optional: true},
	)
	if len(got) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(got))
	}

	if !got[0].Available || got[0].Path != stub || got[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %+v", got[0])
	}
	if got[1].Available || got[1].Detail == "" || got[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected status for missing binary: %+v", got[1])
	}
	if got[2].Available || got[2].Detail != "command not configured" || got[2].Command != "" {
		t.Fatalf("unexpected status for unset command: %+v", got[2])
	}
}
