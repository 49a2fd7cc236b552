// Package services defines shared utilities consumed by the narrative pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp caller identity, stage names, clip positions,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into API responses (validation vs upstream vs internal).
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across stages.
package services
