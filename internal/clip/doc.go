// Package clip defines the shared data model for one narrative run: frames,
// captions, clip instructions, and the per-clip plan whose status the daemon
// reports and the client polls.
package clip
