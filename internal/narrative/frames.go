package narrative

import (
	"fmt"
	"strings"

	"storyreel/internal/clip"
	"storyreel/internal/services"
)

// ValidateFrames drops empty references and enforces the 1..MaxFrames bound.
func ValidateFrames(refs []string) ([]clip.Frame, error) {
	out := make([]clip.Frame, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		out = append(out, clip.Frame{URL: ref, Ordinal: len(out)})
	}
	switch {
	case len(out) == 0:
		return nil, services.Wrap(services.ErrValidation, "narrative", "validate frames", "at least 1 frame is required", nil)
	case len(out) > clip.MaxFrames:
		return nil, services.Wrap(services.ErrValidation, "narrative", "validate frames",
			fmt.Sprintf("at most %d frames are supported, got %d", clip.MaxFrames, len(out)), nil)
	}
	return out, nil
}
