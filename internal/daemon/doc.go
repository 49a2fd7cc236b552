// Package daemon hosts the storyreeld HTTP API.
//
// The daemon owns the long-lived collaborators: the narrative pipeline, the
// video provider client used for status polls, the optional Redis status
// cache, and the SQLite task log. A file lock in the data directory keeps a
// single daemon per installation. Every request runs on its own goroutine
// with the request context; there is no background work.
package daemon
