// Package llm provides an OpenAI-compatible chat client for the vision and
// text model behind the narrative pipeline.
//
// This package is used by:
//   - Frame captioning: Client.Describe sends an inline image with a fixed
//     instruction and returns the model's description.
//   - Story composition: Client.Complete sends the story prompt and returns the
//     raw text, which callers parse with their own recovery rules.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title, timeout.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 4
// attempts by default). Retry-After headers are honoured. Context
// cancellation aborts retries immediately.
//
// StripCodeFence removes the Markdown fence models like to wrap JSON in.
package llm
