package frames

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FromArg converts a CLI frame argument into a frame reference: URLs and data
// URLs pass through, local paths are read and inlined as data URLs.
func FromArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)
	if arg == "" || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read frame %s: %w", arg, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(arg)))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("frame %s is not an image (%s)", arg, mimeType)
	}
	return DataURL(data, mimeType), nil
}
