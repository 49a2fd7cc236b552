package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Binary names an external executable storyreel can call out to.
type Binary struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Status is the lookup result for one Binary. Path is the resolved
// executable when Available is true.
type Status struct {
	Binary
	Path      string
	Available bool
	Detail    string
}

// Check resolves the command on PATH. Absolute and relative paths are
// checked as given.
func (b Binary) Check() Status {
	b.Command = strings.TrimSpace(b.Command)
	status := Status{Binary: b}
	if b.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(b.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", b.Command)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// CheckAll checks each binary in order.
func CheckAll(binaries ...Binary) []Status {
	out := make([]Status, len(binaries))
	for i, b := range binaries {
		out[i] = b.Check()
	}
	return out
}
