// Package preflight provides readiness checks for the filesystem paths and
// external programs storyreel depends on.
//
// These checks run in two contexts:
//   - storyreeld runs RunDaemon before opening the task log and refuses to
//     start when a directory is unusable.
//   - The CLI "storyreel status" command uses CheckPlayer to show whether
//     combined playback can work on this machine.
package preflight
