// Package api defines the JSON payloads exchanged between storyreeld and its
// clients, plus the HTTP client the CLI uses to talk to the daemon.
//
// Wire keys are camelCase and stable: frameUrl, frameDesc, videoClip, taskId,
// status, videoUrl, storyRaw. Handlers in internal/daemon and the client here
// share these types so the two sides cannot drift apart.
package api
