package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/api"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// savedResult is the file format shared by `submit -o` and `watch`.
type savedResult struct {
	api.SubmitResponse
	SubmittedAt time.Time `json:"submittedAt"`
}

// saveResult writes a submit response so `storyreel watch` can resume it.
func saveResult(path string, result savedResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// loadResult reads a saved submit response. Files without submittedAt fall
// back to their modification time.
func loadResult(path string) (savedResult, error) {
	var result savedResult
	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read result: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("parse result %s: %w", path, err)
	}
	if result.SubmittedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			result.SubmittedAt = info.ModTime()
		}
	}
	return result, nil
}
